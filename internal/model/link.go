package model

type Link struct {
	Text     string `json:"text"`
	Target   string `json:"target"`
	Line     int    `json:"line"`
	External bool   `json:"external"`
}
