package writer

import (
	"log/slog"
	"strings"

	"github.com/lamim/finetuneforge/pkg/models"
)

// Question categories in the order they are tested
const (
	CategoryHow             = "how"
	CategoryWhat            = "what"
	CategoryWhy             = "why"
	CategoryWhen            = "when"
	CategoryTroubleshooting = "troubleshooting"
	CategoryIntegration     = "integration"
	CategoryOther           = "other"
)

// Categories lists every question category in report order
var Categories = []string{
	CategoryHow,
	CategoryWhat,
	CategoryWhy,
	CategoryWhen,
	CategoryTroubleshooting,
	CategoryIntegration,
	CategoryOther,
}

type categoryRule struct {
	name     string
	keywords []string
}

var (
	actionWords   = []string{"create", "implement", "build", "write", "generate", "make"}
	artifactWords = []string{"component", "function", "class", "code", "app", "template"}
	codeWords     = []string{"code", "component", "import", "export", "function", "class"}

	categoryRules = []categoryRule{
		{CategoryHow, []string{"how"}},
		{CategoryWhat, []string{"what"}},
		{CategoryWhy, []string{"why"}},
		{CategoryWhen, []string{"when"}},
		{CategoryTroubleshooting, []string{"error", "debug", "troubleshoot"}},
		{CategoryIntegration, []string{"integrate", "setup", "install"}},
	}
)

// Stats is a keyword-based summary of a dataset. The classification is a
// rough substring match over the user turn and only meant for reporting.
type Stats struct {
	Total          int
	CodeGeneration int
	Questions      map[string]int // category -> count, excludes code generation
	CodeRelated    int
}

// ComputeStats classifies each record by its lower-cased user turn
func ComputeStats(records []models.TrainingRecord) Stats {
	stats := Stats{
		Total:     len(records),
		Questions: make(map[string]int),
	}

	for _, rec := range records {
		user := strings.ToLower(rec.UserContent())

		if containsAny(user, codeWords) {
			stats.CodeRelated++
		}

		if containsAny(user, actionWords) && containsAny(user, artifactWords) {
			stats.CodeGeneration++
			continue
		}

		stats.Questions[classify(user)]++
	}

	return stats
}

func classify(user string) string {
	for _, rule := range categoryRules {
		if containsAny(user, rule.keywords) {
			return rule.name
		}
	}
	return CategoryOther
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Log writes the summary at info level. Empty categories are omitted.
func (s Stats) Log(logger *slog.Logger) {
	logger.Info("Training data summary",
		"total", s.Total,
		"code_generation", s.CodeGeneration,
		"code_related", s.CodeRelated)

	for _, category := range Categories {
		if n := s.Questions[category]; n > 0 {
			logger.Info("Question category", "category", category, "count", n)
		}
	}
}
