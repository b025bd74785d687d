package handler

import (
	"context"
)

type translateBody struct {
	Text    string   `json:"text"`
	Targets []string `json:"targets"`
}

type translateResponse struct {
	Translations map[string]string `json:"translations"`
}

// Translate returns one machine translation of text per target locale.
func (a *App) Translate(ctx context.Context, req *Request) (any, error) {
	var body translateBody
	if err := req.Decode(&body); err != nil {
		return nil, err
	}

	translations, err := a.translator.Translate(ctx, body.Text, body.Targets)
	if err != nil {
		return nil, err
	}
	return translateResponse{Translations: translations}, nil
}
