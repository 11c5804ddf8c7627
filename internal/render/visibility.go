package render

import (
	"strings"

	"go.uber.org/zap"
)

// Condition is a named visibility condition a block can depend on.
type Condition string

// Supported conditions
const (
	CondHasTech        Condition = "hasTech"
	CondHasAgents      Condition = "hasAgents"
	CondIsFirstPage    Condition = "isFirstPage"
	CondIsLastPage     Condition = "isLastPage"
	CondHasUnique      Condition = "hasUnique"
	CondHasMensuel     Condition = "hasMensuel"
	CondHasDiscount    Condition = "hasDiscount"
	CondHasSignature   Condition = "hasSignature"
	CondHasDescription Condition = "hasDescription"
	CondHasLetter      Condition = "hasLetter"
)

var knownConditions = map[Condition]bool{
	CondHasTech:        true,
	CondHasAgents:      true,
	CondIsFirstPage:    true,
	CondIsLastPage:     true,
	CondHasUnique:      true,
	CondHasMensuel:     true,
	CondHasDiscount:    true,
	CondHasSignature:   true,
	CondHasDescription: true,
	CondHasLetter:      true,
}

// ParseCondition maps a condition name onto the closed set. The second result
// is false for names outside it.
func ParseCondition(name string) (Condition, bool) {
	c := Condition(strings.TrimSpace(name))
	return c, knownConditions[c]
}

// IsPageDependent reports whether the condition changes from page to page.
func (c Condition) IsPageDependent() bool {
	return c == CondIsFirstPage || c == CondIsLastPage
}

// Evaluate reports whether content guarded by c is shown.
func (c Condition) Evaluate(ctx Context) bool {
	f := ctx.Facts
	switch c {
	case CondHasTech:
		return f.HasTech
	case CondHasAgents:
		return f.HasAgents
	case CondIsFirstPage:
		return ctx.Page.IsFirst()
	case CondIsLastPage:
		return ctx.Page.IsLast()
	case CondHasUnique:
		return f.HasUnique
	case CondHasMensuel:
		return f.HasMensuel
	case CondHasDiscount:
		return f.HasDiscount
	case CondHasSignature:
		return f.HasSignature
	case CondHasDescription:
		return f.HasDescription
	case CondHasLetter:
		return f.HasLetter
	}
	return true
}

// VisibilityEvaluator evaluates condition names. Unknown names fail open and
// are logged once per evaluator so typos surface without hiding content.
type VisibilityEvaluator struct {
	logger *zap.Logger
	warned map[string]bool
}

// NewVisibilityEvaluator creates an evaluator; a nil logger discards warnings.
func NewVisibilityEvaluator(logger *zap.Logger) *VisibilityEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisibilityEvaluator{logger: logger, warned: make(map[string]bool)}
}

// Visible reports whether a block guarded by name is shown. An empty name is always visible.
func (v *VisibilityEvaluator) Visible(name string, ctx Context) bool {
	if strings.TrimSpace(name) == "" {
		return true
	}
	cond, ok := ParseCondition(name)
	if !ok {
		if !v.warned[name] {
			v.warned[name] = true
			v.logger.Warn("Unknown visibility condition, showing content", zap.String("condition", name))
		}
		return true
	}
	return cond.Evaluate(ctx)
}
