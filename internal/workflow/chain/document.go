package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/compose"

	wfmodel "psst-builder-api/internal/workflow/model"
	wfnode "psst-builder-api/internal/workflow/node"
	workflowport "psst-builder-api/internal/workflow/port"
	"psst-builder-api/pkg/logger"
)

// 节点名称，回调处理器据此记录耗时
const (
	NodeDocumentInit     = "document.init"
	NodeDocumentRequest  = "document.request"
	NodeDocumentLLM      = "document.llm"
	NodeDocumentFinalize = "document.finalize"
)

type DocumentChain struct {
	model workflowport.TextModel

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.DocumentGenerateInput, *wfmodel.DocumentGenerateOutput]
	chainErr  error
}

func NewDocumentChain(model workflowport.TextModel) *DocumentChain {
	return &DocumentChain{model: model}
}

// Invoke 执行一次结构化文档生成，不做重试
func (c *DocumentChain) Invoke(ctx context.Context, in *wfmodel.DocumentGenerateInput) (*wfmodel.DocumentGenerateOutput, error) {
	if c == nil || c.model == nil {
		return nil, fmt.Errorf("text model not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type documentChainState struct {
	In       *wfmodel.DocumentGenerateInput
	Request  *workflowport.TextRequest
	Response *workflowport.TextResponse
}

func (c *DocumentChain) getChain() (compose.Runnable[*wfmodel.DocumentGenerateInput, *wfmodel.DocumentGenerateOutput], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *DocumentChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.DocumentGenerateInput, *wfmodel.DocumentGenerateOutput], error) {
	chain := compose.NewChain[*wfmodel.DocumentGenerateInput, *wfmodel.DocumentGenerateOutput]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.DocumentGenerateInput) (*documentChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			if strings.TrimSpace(in.UserPrompt) == "" {
				return nil, fmt.Errorf("user prompt is empty")
			}
			return &documentChainState{In: in}, nil
		}),
		compose.WithNodeName(NodeDocumentInit),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *documentChainState) (*documentChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			st.Request = &workflowport.TextRequest{
				Model:             strings.TrimSpace(st.In.Model),
				SystemInstruction: st.In.SystemInstruction,
				Prompt:            st.In.UserPrompt,
				Attachments:       st.In.Attachments,
				ResponseSchema:    st.In.ResponseSchema,
				MaxOutputTokens:   st.In.MaxOutputTokens,
				ThinkingBudget:    st.In.ThinkingBudget,
			}
			return st, nil
		}),
		compose.WithNodeName(NodeDocumentRequest),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *documentChainState) (*documentChainState, error) {
			if st == nil || st.Request == nil {
				return nil, fmt.Errorf("state is nil")
			}
			resp, err := c.model.GenerateText(ctx, st.Request)
			if err != nil {
				return nil, err
			}
			if resp == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			if resp.Truncated {
				logger.Warn(ctx, "document output hit token limit",
					"model", resp.Model,
					"finish_reason", resp.FinishReason,
					"completion_tokens", resp.Usage.CompletionTokens,
				)
			}
			st.Response = resp
			return st, nil
		}),
		compose.WithNodeName(NodeDocumentLLM),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *documentChainState) (*wfmodel.DocumentGenerateOutput, error) {
			if st == nil || st.Response == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return &wfmodel.DocumentGenerateOutput{
				Raw:       st.Response.Text,
				JSON:      wfnode.ExtractJSONObject(st.Response.Text),
				Model:     st.Response.Model,
				Truncated: st.Response.Truncated,
				Usage:     st.Response.Usage,
			}, nil
		}),
		compose.WithNodeName(NodeDocumentFinalize),
	)

	return chain.Compile(ctx)
}
