package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	transcriptionModel = openai.AudioModelWhisper1
	chatModel          = openai.ChatModelGPT4o

	// Large media can take a while end to end; a timeout still bounds it.
	requestTimeout = 6 * time.Minute
)

const summaryPrompt = "Summarize the following text:"

const questionPrompt = `Context: %s

User question: %s

Please answer the question based on the provided context.
If the answer cannot be found in the context, state this and provide a general answer.`

// Client wraps the OpenAI API for the three collaborator calls the bot makes:
// transcription, summarization and Q&A.
type Client struct {
	api openai.Client
}

// NewClient builds the OpenAI client, optionally routing through an outbound
// proxy ("" or "localhost" disables it).
func NewClient(apiKey, proxy string) (*Client, error) {
	httpClient := &http.Client{Timeout: requestTimeout}

	if proxy != "" && proxy != "localhost" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", proxy, err)
		}
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}

	api := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)
	return &Client{api: api}, nil
}

// Transcribe runs whisper over a local audio file and returns the text.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("opening audio %s: %w", audioPath, err)
	}
	defer file.Close()

	transcription, err := c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: transcriptionModel,
		File:  file,
	})
	if err != nil {
		return "", fmt.Errorf("transcribing %s: %w", audioPath, err)
	}
	return transcription.Text, nil
}

// Summarize produces the bullet-point summary of a full transcript.
func (c *Client) Summarize(ctx context.Context, text string) (string, error) {
	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(summaryPrompt),
			openai.UserMessage(text),
		},
	})
	if err != nil {
		return "", fmt.Errorf("summarizing: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("summarizing: empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}

// Answer replies to a free-text question grounded on the stored transcript.
func (c *Client) Answer(ctx context.Context, contextText, question string) (string, error) {
	prompt := fmt.Sprintf(questionPrompt, contextText, question)

	completion, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("answering: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("answering: empty completion")
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
