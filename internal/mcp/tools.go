package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrWong99/phonoshift/pkg/rules"
)

type guessInput struct {
	Speaker string `json:"speaker" jsonschema:"name of the speaker whose pronunciation is predicted"`
	Target  string `json:"target" jsonschema:"intended pronunciation, e.g. K-AE T"`
	Explain bool   `json:"explain,omitempty" jsonschema:"also report the rule that decided every phoneme"`
}

type step struct {
	Syllable int    `json:"syllable"`
	Index    int    `json:"index"`
	Target   string `json:"target"`
	Output   string `json:"output"`
	Source   string `json:"source"`
	Rule     string `json:"rule,omitempty"`
}

type guessOutput struct {
	Speaker string `json:"speaker"`
	Target  string `json:"target"`
	Guess   string `json:"guess"`
	Steps   []step `json:"steps,omitempty"`
}

func (s *Server) guess(ctx context.Context, _ *mcpsdk.CallToolRequest, in guessInput) (*mcpsdk.CallToolResult, guessOutput, error) {
	out := guessOutput{Speaker: in.Speaker, Target: in.Target}
	if !in.Explain {
		g, err := s.speakers.Guess(ctx, in.Speaker, in.Target)
		if err != nil {
			return nil, guessOutput{}, err
		}
		out.Guess = g
		return nil, out, nil
	}

	g, decisions, err := s.speakers.Explain(ctx, in.Speaker, in.Target)
	if err != nil {
		return nil, guessOutput{}, err
	}
	out.Guess = g
	out.Steps = make([]step, 0, len(decisions))
	for _, d := range decisions {
		st := step{
			Syllable: d.Syllable,
			Index:    d.Index,
			Target:   d.Target.String(),
			Output:   d.Output.String(),
			Source:   d.Source.String(),
		}
		switch {
		case d.Specific != nil:
			st.Rule = d.Specific.String()
		case d.Generalized != nil:
			st.Rule = d.Generalized.String()
		}
		out.Steps = append(out.Steps, st)
	}
	return nil, out, nil
}

type listSpeakersInput struct{}

type speakerSummary struct {
	Name             string `json:"name"`
	Source           string `json:"source"`
	Trained          bool   `json:"trained"`
	Pairs            int    `json:"pairs"`
	SpecificRules    int    `json:"specific_rules"`
	GeneralizedRules int    `json:"generalized_rules"`
	Error            string `json:"error,omitempty"`
}

type listSpeakersOutput struct {
	Speakers []speakerSummary `json:"speakers"`
}

func (s *Server) listSpeakers(context.Context, *mcpsdk.CallToolRequest, listSpeakersInput) (*mcpsdk.CallToolResult, listSpeakersOutput, error) {
	infos := s.speakers.List()
	out := listSpeakersOutput{Speakers: make([]speakerSummary, 0, len(infos))}
	for _, info := range infos {
		out.Speakers = append(out.Speakers, speakerSummary{
			Name:             info.Name,
			Source:           info.Source,
			Trained:          info.Trained,
			Pairs:            info.Stats.Pairs,
			SpecificRules:    info.Stats.SpecificRules,
			GeneralizedRules: info.Stats.GeneralizedRules,
			Error:            info.Error,
		})
	}
	return nil, out, nil
}

type listRulesInput struct {
	Speaker string `json:"speaker" jsonschema:"name of the speaker"`
}

type listRulesOutput struct {
	Speaker     string   `json:"speaker"`
	Specific    []string `json:"specific"`
	Generalized []string `json:"generalized"`
}

func (s *Server) listRules(_ context.Context, _ *mcpsdk.CallToolRequest, in listRulesInput) (*mcpsdk.CallToolResult, listRulesOutput, error) {
	m, err := s.speakers.Model(in.Speaker)
	if err != nil {
		return nil, listRulesOutput{}, err
	}
	return nil, describeRules(in.Speaker, m), nil
}

func describeRules(name string, m *rules.Model) listRulesOutput {
	out := listRulesOutput{Speaker: name, Specific: []string{}, Generalized: []string{}}
	for _, r := range m.SpecificRules() {
		out.Specific = append(out.Specific, r.String())
	}
	for _, g := range m.GeneralizedRules() {
		out.Generalized = append(out.Generalized, g.String())
	}
	return out
}
