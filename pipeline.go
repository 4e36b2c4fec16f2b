package genchat

import (
	"context"
	"fmt"
	"strings"
)

// Stage is one step of a sequential agent pipeline. Each stage runs as its
// own conversation under its instruction; tools listed on the stage are
// offered to the model for that stage only.
type Stage struct {
	Name        string
	Instruction string // system prompt for the stage
	Model       string // empty means the provider default
	Tools       []Tool
}

// StageResult pairs a stage name with the assistant text it produced.
type StageResult struct {
	Name   string
	Output string
}

// Pipeline runs stages in order through a shared provider. Each stage sees
// the pipeline input plus the named outputs of every stage before it, so
// later stages can build on earlier ones. Stage tool calls go through the
// pipeline's executor.
type Pipeline struct {
	provider Provider
	executor ToolExecutor
	stages   []Stage
}

// NewPipeline creates a Pipeline. The executor may be nil when no stage
// carries tools.
func NewPipeline(provider Provider, executor ToolExecutor, stages ...Stage) *Pipeline {
	return &Pipeline{provider: provider, executor: executor, stages: stages}
}

// Run executes the stages in order on input. The returned slice holds one
// result per completed stage in execution order; the last entry is the
// pipeline's final output. A stage failure stops the run and returns the
// results of the stages that finished, with the error naming the failed
// stage.
func (p *Pipeline) Run(ctx context.Context, input string, opts ...RunOption) ([]StageResult, error) {
	results := make([]StageResult, 0, len(p.stages))
	loop := NewLoop(p.provider, p.executor)

	for _, stage := range p.stages {
		session := NewSession(stage.Name, stage.Instruction)
		session.Messages = []Message{NewUserMessage(stageInput(input, results))}

		runOpts := append([]RunOption{}, opts...)
		if stage.Model != "" {
			runOpts = append(runOpts, WithModel(stage.Model))
		}
		if err := loop.Run(ctx, &session, stage.Tools, runOpts...); err != nil {
			return results, fmt.Errorf("stage %s: %w", stage.Name, err)
		}

		last := session.Messages[len(session.Messages)-1]
		reply, ok := last.(AssistantMessage)
		if !ok {
			return results, fmt.Errorf("stage %s: conversation ended without a reply", stage.Name)
		}
		results = append(results, StageResult{Name: stage.Name, Output: reply.Text()})
	}
	return results, nil
}

// stageInput builds a stage's opening message: the pipeline input followed
// by each completed stage's output under its name.
func stageInput(input string, prior []StageResult) string {
	if len(prior) == 0 {
		return input
	}
	var sb strings.Builder
	sb.WriteString(input)
	for _, r := range prior {
		sb.WriteString("\n\n[")
		sb.WriteString(r.Name)
		sb.WriteString("]\n")
		sb.WriteString(r.Output)
	}
	return sb.String()
}
