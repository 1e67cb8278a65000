// Package unstructured talks to the unstructured.io partition API.
package unstructured

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Element is one partitioned span of a document.
type Element struct {
	ID       string          `json:"element_id"`
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Metadata ElementMetadata `json:"metadata"`
}

// ElementMetadata carries the subset of element metadata the form pipeline reads.
type ElementMetadata struct {
	Filename   string `json:"filename,omitempty"`
	PageNumber int    `json:"page_number,omitempty"`
}

type Client struct {
	client *http.Client

	url   string
	token string

	languages []string
}

func New(url string, options ...Option) (*Client, error) {
	if url == "" {
		url = DefaultURL
	}

	c := &Client{
		client: http.DefaultClient,

		url: url,

		languages: []string{"eng"},
	}

	for _, option := range options {
		option(c)
	}

	return c, nil
}

// PartitionFile uploads the file at path and returns the elements produced by strategy.
func (c *Client) PartitionFile(ctx context.Context, path string, strategy Strategy) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return c.Partition(ctx, filepath.Base(path), data, strategy)
}

// Partition uploads content under name and returns the elements produced by strategy.
func (c *Client) Partition(ctx context.Context, name string, content []byte, strategy Strategy) ([]Element, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	w.WriteField("strategy", string(strategy))

	if len(c.languages) > 0 {
		w.WriteField("ocr_languages", strings.Join(c.languages, "+"))

		for _, lang := range c.languages {
			w.WriteField("languages", lang)
		}
	}

	if strategy == StrategyHiRes {
		w.WriteField("pdf_infer_table_structure", "true")
	}

	f, err := w.CreateFormFile("files", name)

	if err != nil {
		return nil, err
	}

	if _, err := f.Write(content); err != nil {
		return nil, err
	}

	w.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &b)

	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", w.FormDataContentType())

	if c.token != "" {
		req.Header.Set("unstructured-api-key", c.token)
	}

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, convertError(resp)
	}

	var elements []Element

	if err := json.NewDecoder(resp.Body).Decode(&elements); err != nil {
		return nil, fmt.Errorf("failed to decode partition response: %w", err)
	}

	return elements, nil
}

func convertError(resp *http.Response) error {
	data, _ := io.ReadAll(resp.Body)

	if len(data) == 0 {
		return errors.New(http.StatusText(resp.StatusCode))
	}

	return fmt.Errorf("%s: %s", http.StatusText(resp.StatusCode), strings.TrimSpace(string(data)))
}
