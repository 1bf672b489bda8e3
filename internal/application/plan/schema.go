package plan

import "sync"

var (
	documentSchemaOnce sync.Once
	documentSchema     map[string]any
)

// DocumentSchema 计划书输出的唯一 schema，同时用于约束模型输出和校验结构
func DocumentSchema() map[string]any {
	documentSchemaOnce.Do(func() {
		documentSchema = buildDocumentSchema()
	})
	return documentSchema
}

func str() map[string]any { return map[string]any{"type": "string"} }
func num() map[string]any { return map[string]any{"type": "number"} }

func object(required []any, props map[string]any) map[string]any {
	o := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		o["required"] = required
	}
	return o
}

func arrayOf(item map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": item}
}

func buildDocumentSchema() map[string]any {
	marketFigure := object(nil, map[string]any{
		"name":  str(),
		"value": num(),
	})

	return object(
		[]any{"summary", "problem", "solution", "scaleUp", "team"},
		map[string]any{
			"summary": object(
				[]any{"introduction", "differentiation", "targetMarket", "goals"},
				map[string]any{
					"introduction":    str(),
					"differentiation": str(),
					"targetMarket":    str(),
					"goals":           str(),
				},
			),
			"problem": object(
				[]any{"motivation", "purpose"},
				map[string]any{
					"motivation": str(),
					"purpose":    str(),
				},
			),
			"solution": object(
				[]any{"devPlan", "stepwisePlan", "budgetTable", "customerResponse", "competitorAnalysis"},
				map[string]any{
					"devPlan":      str(),
					"stepwisePlan": str(),
					"budgetTable": arrayOf(object(nil, map[string]any{
						"item":    str(),
						"period":  str(),
						"content": str(),
					})),
					"customerResponse":   str(),
					"competitorAnalysis": str(),
				},
			),
			"scaleUp": object(
				[]any{"fundingPlan", "detailedBudget", "marketResearchDomestic", "marketApproachDomestic", "marketResearchGlobal", "marketApproachGlobal"},
				map[string]any{
					"fundingPlan":    str(),
					"salesPlan":      str(),
					"policyFundPlan": str(),
					"detailedBudget": arrayOf(object(nil, map[string]any{
						"category": str(),
						"basis":    str(),
						"amount":   num(),
					})),
					"marketResearchDomestic": arrayOf(marketFigure),
					"marketApproachDomestic": str(),
					"marketResearchGlobal":   arrayOf(marketFigure),
					"marketApproachGlobal":   str(),
				},
			),
			"team": object(
				[]any{"capability", "hiringStatus", "socialValue"},
				map[string]any{
					"capability":   str(),
					"hiringStatus": str(),
					"socialValue":  str(),
				},
			),
		},
	)
}
