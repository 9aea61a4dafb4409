// matcher.go - Fuzzy matching of extracted project mentions against the
// project directory

package processor

import (
	"context"
	"regexp"
	"strings"

	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/common"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/extract"
	"github.com/smartbiz-vn/receipt_ai_analyzer/internal/storage"
)

// nameCandidateLimit bounds the fuzzy name query.
const nameCandidateLimit = 5

// ProjectDirectory is the read-only lookup contract the matcher depends on.
type ProjectDirectory interface {
	FindByCode(ctx context.Context, code string) (*storage.Project, error)
	FindByNameSubstring(ctx context.Context, text string, limit int64) ([]storage.Project, error)
}

// MatchProject finds at most one best-effort project for an analysis.
// Priority order: no mention → nil without any lookup; exact code match;
// fuzzy name match among up to 5 substring candidates ranked by similarity.
// Any directory fault is treated as "no match" - matching is an enhancement,
// never a cause of request failure.
func MatchProject(ctx context.Context, dir ProjectDirectory, analysis extract.ExpenseAnalysis, reqCtx *common.RequestContext) *storage.Project {
	if !analysis.ProjectMention {
		return nil
	}

	if code := deref(analysis.ProjectCode); code != "" {
		project, err := dir.FindByCode(ctx, code)
		if err != nil {
			reqCtx.LogWarning("Project code lookup failed: %v", err)
		} else if project != nil {
			reqCtx.LogInfo("✓ Project matched by code: %s (%s)", project.Name, project.ProjectCode)
			return project
		}
	}

	if name := deref(analysis.ProjectName); name != "" {
		candidates, err := dir.FindByNameSubstring(ctx, name, nameCandidateLimit)
		if err != nil {
			reqCtx.LogWarning("Project name lookup failed: %v", err)
			return nil
		}
		if best := bestNameMatch(name, candidates); best != nil {
			reqCtx.LogInfo("✓ Project matched by name: %s (similarity ranked among %d candidates)",
				best.Name, len(candidates))
			return best
		}
	}

	return nil
}

// bestNameMatch ranks substring candidates by similarity of normalized names
// and returns the closest one.
func bestNameMatch(extracted string, candidates []storage.Project) *storage.Project {
	if len(candidates) == 0 {
		return nil
	}

	normalizedExtracted := normalizeProjectName(extracted)
	if normalizedExtracted == "" {
		return &candidates[0]
	}

	best := &candidates[0]
	bestSimilarity := -1.0

	for i := range candidates {
		similarity := nameSimilarity(normalizedExtracted, normalizeProjectName(candidates[i].Name))
		if similarity > bestSimilarity {
			best = &candidates[i]
			bestSimilarity = similarity
		}
	}

	return best
}

var (
	nonAlnumRe    = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	projectPrefix = []string{"dự án", "du an", "công trình", "cong trinh", "project"}
)

// normalizeProjectName normalizes project names for matching: lowercase,
// common Vietnamese project prefixes removed, punctuation collapsed.
func normalizeProjectName(name string) string {
	name = strings.ToLower(name)

	for _, prefix := range projectPrefix {
		name = strings.Replace(name, prefix, "", -1)
	}

	name = nonAlnumRe.ReplaceAllString(name, " ")
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// nameSimilarity scores two normalized names in [0, 100].
func nameSimilarity(name1, name2 string) float64 {
	if name1 == name2 {
		return 100.0
	}

	distance := levenshteinDistance(name1, name2)
	maxLen := float64(maxInt(len(name1), len(name2)))
	if maxLen == 0 {
		return 0.0
	}

	similarity := (1.0 - (float64(distance) / maxLen)) * 100.0
	if similarity < 0 {
		return 0.0
	}
	return similarity
}

func levenshteinDistance(s1, s2 string) int {
	len1 := len(s1)
	len2 := len(s2)

	matrix := make([][]int, len1+1)
	for i := range matrix {
		matrix[i] = make([]int, len2+1)
	}

	for i := 0; i <= len1; i++ {
		matrix[i][0] = i
	}
	for j := 0; j <= len2; j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len1; i++ {
		for j := 1; j <= len2; j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len1][len2]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
