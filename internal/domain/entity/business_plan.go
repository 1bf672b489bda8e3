package entity

import (
	"strings"
	"time"
)

// BusinessPlanDocument PSST 结构化计划书
// 字段名与模型输出的 JSON schema 保持一致
type BusinessPlanDocument struct {
	Summary  *SummarySection  `json:"summary" validate:"required"`
	Problem  *ProblemSection  `json:"problem" validate:"required"`
	Solution *SolutionSection `json:"solution" validate:"required"`
	ScaleUp  *ScaleUpSection  `json:"scaleUp" validate:"required"`
	Team     *TeamSection     `json:"team" validate:"required"`
}

// SummarySection 概要
type SummarySection struct {
	Introduction    string `json:"introduction" validate:"nonblank"`
	Differentiation string `json:"differentiation" validate:"nonblank"`
	TargetMarket    string `json:"targetMarket" validate:"nonblank"`
	Goals           string `json:"goals" validate:"nonblank"`
}

// ProblemSection 问题认识（Problem）
type ProblemSection struct {
	Motivation string `json:"motivation" validate:"nonblank"`
	Purpose    string `json:"purpose" validate:"nonblank"`
}

// SolutionSection 实现方案（Solution）
type SolutionSection struct {
	DevPlan            string       `json:"devPlan" validate:"nonblank"`
	StepwisePlan       string       `json:"stepwisePlan" validate:"nonblank"`
	BudgetTable        []BudgetLine `json:"budgetTable"`
	CustomerResponse   string       `json:"customerResponse" validate:"nonblank"`
	CompetitorAnalysis string       `json:"competitorAnalysis" validate:"nonblank"`
}

// BudgetLine 开发预算表行
type BudgetLine struct {
	Item    string `json:"item"`
	Period  string `json:"period"`
	Content string `json:"content"`
}

// ScaleUpSection 成长策略（Scale-up）
type ScaleUpSection struct {
	FundingPlan            string         `json:"fundingPlan" validate:"nonblank"`
	SalesPlan              string         `json:"salesPlan,omitempty"`
	PolicyFundPlan         string         `json:"policyFundPlan,omitempty"`
	DetailedBudget         []BudgetItem   `json:"detailedBudget"`
	MarketResearchDomestic []MarketFigure `json:"marketResearchDomestic"`
	MarketApproachDomestic string         `json:"marketApproachDomestic" validate:"nonblank"`
	MarketResearchGlobal   []MarketFigure `json:"marketResearchGlobal"`
	MarketApproachGlobal   string         `json:"marketApproachGlobal" validate:"nonblank"`
}

// BudgetItem 资金明细
type BudgetItem struct {
	Category string  `json:"category"`
	Basis    string  `json:"basis"`
	Amount   float64 `json:"amount"`
}

// MarketFigure 市场规模数据点
type MarketFigure struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TeamSection 团队构成（Team）
type TeamSection struct {
	Capability   string `json:"capability" validate:"nonblank"`
	HiringStatus string `json:"hiringStatus" validate:"nonblank"`
	SocialValue  string `json:"socialValue" validate:"nonblank"`
}

// Validate 校验必填字段，返回 *ValidationError 列出全部问题
func (d *BusinessPlanDocument) Validate() error {
	return validateStruct(d)
}

const exportFileSuffix = "사업계획서.pdf"

// ExportFileName 导出文件名：概要首词 + 固定后缀
func (d *BusinessPlanDocument) ExportFileName() string {
	if d == nil || d.Summary == nil {
		return exportFileSuffix
	}
	fields := strings.Fields(d.Summary.Introduction)
	if len(fields) == 0 {
		return exportFileSuffix
	}
	first := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, fields[0])
	if first == "" {
		return exportFileSuffix
	}
	return first + "_" + exportFileSuffix
}

// PlanRecord 已生成的计划书（文档 + 图片）
type PlanRecord struct {
	ID        string                `json:"id"`
	Document  *BusinessPlanDocument `json:"document"`
	Images    []GeneratedImage      `json:"images"`
	FileName  string                `json:"file_name"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewPlanRecord 创建计划书记录
func NewPlanRecord(id string, doc *BusinessPlanDocument, images []GeneratedImage) *PlanRecord {
	return &PlanRecord{
		ID:        id,
		Document:  doc,
		Images:    images,
		FileName:  doc.ExportFileName(),
		CreatedAt: time.Now(),
	}
}
