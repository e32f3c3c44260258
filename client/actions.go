package client

import (
	"context"

	"github.com/vnkhanh/koru-backend/models"
	"github.com/vnkhanh/koru-backend/parser"
	"github.com/vnkhanh/koru-backend/prompts"
)

func (c *Client) Explain(ctx context.Context, topic string) (parser.Result[models.ExplanationResult], error) {
	raw, err := c.Call(ctx, prompts.ActionExplanation, prompts.Payload{Topic: topic})
	if err != nil {
		return parser.Result[models.ExplanationResult]{}, err
	}
	return c.parser.Explanation(raw, topic), nil
}

func (c *Client) Clarify(ctx context.Context, topic, confusion string) (parser.Result[[]models.Card], error) {
	raw, err := c.Call(ctx, prompts.ActionClarification, prompts.Payload{Topic: topic, Confusion: confusion})
	if err != nil {
		return parser.Result[[]models.Card]{}, err
	}
	return c.parser.Clarification(raw), nil
}

func (c *Client) GenerateQuiz(ctx context.Context, p prompts.Payload) (parser.Result[[]models.QuizQuestion], error) {
	raw, err := c.Call(ctx, prompts.ActionQuiz, p)
	if err != nil {
		return parser.Result[[]models.QuizQuestion]{}, err
	}
	return c.parser.Quiz(raw, p.Topic), nil
}

func (c *Client) QuizFeedback(ctx context.Context, topic string, correct, total int, fallback string) (string, error) {
	raw, err := c.Call(ctx, prompts.ActionQuizFeedback, prompts.Payload{Topic: topic, Correct: correct, Total: total})
	if err != nil {
		return "", err
	}
	return c.parser.Feedback(raw, fallback).Value, nil
}

// RefineTitle returns topic unchanged on any failure.
func (c *Client) RefineTitle(ctx context.Context, topic string) string {
	raw, err := c.Call(ctx, prompts.ActionRefineTitle, prompts.Payload{Topic: topic})
	if err != nil {
		return topic
	}
	return c.parser.RefinedTitle(raw, topic).Value
}
