package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"psst-builder-api/internal/domain/entity"
	wfnode "psst-builder-api/internal/workflow/node"
	"psst-builder-api/pkg/metrics"
)

var (
	compiledSchemaOnce sync.Once
	compiledSchema     *gojsonschema.Schema
	compiledSchemaErr  error
)

func documentValidator() (*gojsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiledSchema, compiledSchemaErr = gojsonschema.NewSchema(gojsonschema.NewGoLoader(DocumentSchema()))
	})
	return compiledSchema, compiledSchemaErr
}

// ParseDocument 解析模型输出为计划书。
// JSON 无法解析时尝试一次截断修复；结构校验与必填校验的全部问题汇总到 MalformedOutputError。
func ParseDocument(text string) (*entity.BusinessPlanDocument, error) {
	raw := wfnode.ExtractJSONObject(text)
	if strings.TrimSpace(raw) == "" {
		return nil, NewMalformedOutputError(errors.New("empty response"), "response: empty output")
	}

	data := []byte(raw)
	if !json.Valid(data) {
		repaired, ok := wfnode.RepairTruncatedJSON(raw)
		if !ok {
			metrics.PlanRepairTotal.WithLabelValues("failed").Inc()
			return nil, NewMalformedOutputError(syntaxError(data), "response: invalid JSON that cannot be repaired")
		}
		metrics.PlanRepairTotal.WithLabelValues("repaired").Inc()
		data = []byte(repaired)
	}

	if issues, err := validateStructure(data); err != nil {
		return nil, err
	} else if len(issues) > 0 {
		return nil, NewMalformedOutputError(errors.New("schema validation failed"), issues...)
	}

	var doc entity.BusinessPlanDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewMalformedOutputError(err, "response: "+err.Error())
	}

	if err := doc.Validate(); err != nil {
		var verr *entity.ValidationError
		if errors.As(err, &verr) {
			return nil, NewMalformedOutputError(err, verr.Issues...)
		}
		return nil, NewMalformedOutputError(err)
	}
	return &doc, nil
}

func validateStructure(data []byte) ([]string, error) {
	schema, err := documentValidator()
	if err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, NewMalformedOutputError(err, "response: "+err.Error())
	}
	if result.Valid() {
		return nil, nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		issues = append(issues, e.String())
	}
	return issues, nil
}

// syntaxError 返回 JSON 语法错误及其位置
func syntaxError(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return errors.New("invalid json: trailing content")
}
