package unstructured

import (
	"net/http"
)

// Strategy selects the partitioning pipeline on the server side.
type Strategy string

const (
	StrategyAuto    Strategy = "auto"
	StrategyFast    Strategy = "fast"
	StrategyHiRes   Strategy = "hi_res"
	StrategyOCROnly Strategy = "ocr_only"
)

// DefaultURL is the hosted partition endpoint.
const DefaultURL = "https://api.unstructured.io/general/v0/general"

type Option func(*Client)

func WithClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

func WithLanguages(languages ...string) Option {
	return func(c *Client) {
		c.languages = languages
	}
}
