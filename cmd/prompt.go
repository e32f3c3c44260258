package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vnkhanh/koru-backend/client"
	"github.com/vnkhanh/koru-backend/logger"
	"github.com/vnkhanh/koru-backend/prompts"
)

type promptOptions struct {
	payload prompts.Payload
	server  string
	timeout time.Duration
	lang    string
}

// newPromptCmd prints the prompt for an action, or with --server sends it
// through a running gateway and prints the parsed result.
func newPromptCmd(_ *rootOptions) *cobra.Command {
	opts := &promptOptions{}
	cmd := &cobra.Command{
		Use:       "prompt <explanation|clarification|quiz|quiz_feedback|refine_title>",
		Short:     "Show or run the prompt for an action",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"explanation", "clarification", "quiz", "quiz_feedback", "refine_title"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action := prompts.Action(args[0])
			if opts.server == "" {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), prompts.Build(action, opts.payload))
				return err
			}
			return runRemotePrompt(cmd, action, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.payload.Topic, "topic", "", "topic to explain or quiz on")
	f.StringVar(&opts.payload.Confusion, "confusion", "", "follow-up question for clarification")
	f.StringVar(&opts.payload.QuizType, "quiz-type", "", "multiple-choice, true-false or essay")
	f.StringVar(&opts.payload.Difficulty, "difficulty", "", "beginner, intermediate or advanced")
	f.IntVar(&opts.payload.NumQuestions, "num", 0, "number of quiz questions")
	f.StringVar(&opts.payload.CustomInstructions, "instructions", "", "extra quiz instructions")
	f.IntVar(&opts.payload.Correct, "correct", 0, "correct answers, for quiz_feedback")
	f.IntVar(&opts.payload.Total, "total", 0, "total questions, for quiz_feedback")
	f.StringVar(&opts.server, "server", "", "base URL of a running server, e.g. http://localhost:8080")
	f.DurationVar(&opts.timeout, "timeout", client.DefaultPolicy().Timeout, "per-attempt timeout")
	f.StringVar(&opts.lang, "lang", "en", "language of error messages, en or id")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

func runRemotePrompt(cmd *cobra.Command, action prompts.Action, opts *promptOptions) error {
	log, err := logger.New("development")
	if err != nil {
		return err
	}
	defer log.Sync()

	policy := client.DefaultPolicy()
	policy.Timeout = opts.timeout
	c := client.New(opts.server,
		client.WithPolicy(policy),
		client.WithLogger(log),
		client.WithLanguage(opts.lang),
		client.WithObserver(func(attempt int, s client.State) {
			log.Debug("request state", "attempt", attempt, "state", s.String())
		}),
	)

	ctx := cmd.Context()
	p := opts.payload
	var out any
	switch action {
	case prompts.ActionClarification:
		out, err = c.Clarify(ctx, p.Topic, p.Confusion)
	case prompts.ActionQuiz:
		out, err = c.GenerateQuiz(ctx, p)
	case prompts.ActionQuizFeedback:
		fallback := fmt.Sprintf("You answered %d out of %d correctly. Keep learning!", p.Correct, p.Total)
		out, err = c.QuizFeedback(ctx, p.Topic, p.Correct, p.Total, fallback)
	case prompts.ActionRefineTitle:
		out = c.RefineTitle(ctx, p.Topic)
	default:
		out, err = c.Explain(ctx, p.Topic)
	}
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
