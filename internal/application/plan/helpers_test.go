package plan

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"psst-builder-api/internal/domain/entity"
)

func sampleInfo() *entity.CompanyInfo {
	return &entity.CompanyInfo{
		CompanyName:       "Acme",
		BusinessItem:      "IoT sensor",
		DevelopmentStatus: "MVP done",
		TargetAudience:    "SMEs",
		TeamInfo:          "2 engineers",
		AdditionalInfo:    "",
	}
}

func sampleDocument() *entity.BusinessPlanDocument {
	long := func(s string) string { return s + " " + strings.Repeat("상세 내용 ", 5) }
	return &entity.BusinessPlanDocument{
		Summary: &entity.SummarySection{
			Introduction:    long("Acme 스마트 IoT 센서"),
			Differentiation: long("차별성"),
			TargetMarket:    long("목표 시장"),
			Goals:           long("목표"),
		},
		Problem: &entity.ProblemSection{
			Motivation: long("개발 동기"),
			Purpose:    long("목적"),
		},
		Solution: &entity.SolutionSection{
			DevPlan:      long("개발 계획"),
			StepwisePlan: long("단계별 계획"),
			BudgetTable: []entity.BudgetLine{
				{Item: "시제품 제작", Period: "1~3개월", Content: "PCB 설계"},
			},
			CustomerResponse:   long("고객 대응"),
			CompetitorAnalysis: long("경쟁사 분석"),
		},
		ScaleUp: &entity.ScaleUpSection{
			FundingPlan:            long("자금 조달"),
			DetailedBudget:         []entity.BudgetItem{{Category: "재료비", Basis: "센서 100개", Amount: 12000000}},
			MarketResearchDomestic: []entity.MarketFigure{{Name: "TAM", Value: 5000}},
			MarketApproachDomestic: long("국내 진출"),
			MarketResearchGlobal:   []entity.MarketFigure{{Name: "TAM", Value: 90000}},
			MarketApproachGlobal:   long("해외 진출"),
		},
		Team: &entity.TeamSection{
			Capability:   long("역량"),
			HiringStatus: long("채용 현황"),
			SocialValue:  long("사회적 가치 실현 계획"),
		},
	}
}

func sampleDocumentJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(sampleDocument())
	require.NoError(t, err)
	return string(b)
}

// mutateDocumentJSON 以 map 形式修改文档后重新序列化
func mutateDocumentJSON(t *testing.T, fn func(m map[string]any)) string {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(sampleDocumentJSON(t)), &m))
	fn(m)
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return string(b)
}

func section(m map[string]any, name string) map[string]any {
	return m[name].(map[string]any)
}
