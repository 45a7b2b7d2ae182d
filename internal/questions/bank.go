package questions

import (
	"context"

	"github.com/voxscholar/voxscholar/internal/model"
)

// bankTopics fixes the display order of the built-in topics.
var bankTopics = []string{
	"Thesis defense",
	"Clinical case",
	"Interview prep",
	"Teaching demo",
	"Policy & ethics",
}

var bankByTopic = map[string][]model.Question{
	"Thesis defense": {
		{
			Question: "What is the central contribution of your thesis, and how does it differ from prior work?",
			KeyPoints: []string{
				"State the main claim or finding in one sentence",
				"Briefly contrast with 2–3 key prior approaches",
				"Explain what makes your contribution novel",
			},
		},
		{
			Question: "How would you defend the validity of your methodology?",
			KeyPoints: []string{
				"Justify why this method was appropriate for the research question",
				"Discuss limitations and how you mitigated them",
				"Mention triangulation or validation if applicable",
			},
		},
		{
			Question: "What are the main limitations of your work?",
			KeyPoints: []string{
				"Acknowledge 2–3 genuine limitations",
				"Explain the impact on conclusions",
				"Suggest future work that could address them",
			},
		},
	},
	"Clinical case": {
		{
			Question: "A 45-year-old presents with acute chest pain. Walk through your differential and initial approach.",
			KeyPoints: []string{
				"Rule out life-threatening causes first (ACS, PE, aortic dissection)",
				"Take focused history: onset, radiation, associated symptoms",
				"Order appropriate initial workup (ECG, troponin, CXR)",
			},
		},
		{
			Question: "A child presents with fever and rash. How do you approach the diagnosis?",
			KeyPoints: []string{
				"Assess severity and need for urgent intervention",
				"Characterize the rash (macular, papular, distribution, timing)",
				"Consider infectious vs non-infectious causes",
			},
		},
	},
	"Interview prep": {
		{
			Question: "Tell me about a time you faced a significant setback. How did you respond?",
			KeyPoints: []string{
				"Use the STAR method (Situation, Task, Action, Result)",
				"Focus on what you learned, not blame",
				"End with a positive outcome or growth",
			},
		},
		{
			Question: "Why do you want this role, and why are you a strong fit?",
			KeyPoints: []string{
				"Connect your values and goals to the organization",
				"Highlight 2–3 specific strengths with examples",
				"Show enthusiasm without overselling",
			},
		},
	},
	"Teaching demo": {
		{
			Question: "Explain a complex concept (e.g., photosynthesis, supply and demand) as if to a beginner.",
			KeyPoints: []string{
				"Start with the big picture, then narrow down",
				"Use analogies or everyday examples",
				"Check for understanding verbally",
			},
		},
		{
			Question: "How would you handle a disruptive or disengaged student in class?",
			KeyPoints: []string{
				"Address the behavior privately when possible",
				"Use non-punitive redirection",
				"Consider underlying causes (boredom, confusion, personal issues)",
			},
		},
	},
	"Policy & ethics": {
		{
			Question: "A colleague shares confidential information. How do you respond?",
			KeyPoints: []string{
				"Clarify boundaries and expectations of confidentiality",
				"Escalate appropriately if policy or law is breached",
				"Document and protect the interests of affected parties",
			},
		},
		{
			Question: "You disagree with a supervisor's decision. How do you handle it?",
			KeyPoints: []string{
				"Express your view respectfully and with evidence",
				"Listen to their reasoning",
				"Accept the final decision while maintaining professionalism",
			},
		},
	},
}

// StaticBank serves the built-in practice topics.
type StaticBank struct{}

func NewStaticBank() *StaticBank {
	return &StaticBank{}
}

// Topics returns the built-in topic names in display order.
func (b *StaticBank) Topics() []string {
	out := make([]string, len(bankTopics))
	copy(out, bankTopics)
	return out
}

// Has reports whether topic is one of the built-in topics.
func (b *StaticBank) Has(topic string) bool {
	_, ok := bankByTopic[topic]
	return ok
}

func (b *StaticBank) Questions(_ context.Context, topic string) ([]model.Question, error) {
	qs, ok := bankByTopic[topic]
	if !ok {
		return nil, ErrUnknownTopic
	}
	out := make([]model.Question, len(qs))
	copy(out, qs)
	return out, nil
}
