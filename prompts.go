package avgchat

// QuickPromptCategory groups starter prompts shown before the first
// question.
type QuickPromptCategory struct {
	Category string
	Prompts  []string
}

// QuickPrompts is the static starter catalog. Inserting one replaces the
// current draft.
var QuickPrompts = []QuickPromptCategory{
	{
		Category: "Privacy policy",
		Prompts: []string{
			"Check my privacy policy for AVG compliance",
			"Help me draft a privacy policy for a [sector] organisation",
			"Which information must my privacy statement include?",
			"How do I write a clear privacy notice for customers?",
		},
	},
	{
		Category: "DPIA & risk",
		Prompts: []string{
			"When do I have to carry out a DPIA?",
			"Help me draft a DPIA for [system/process]",
			"How do I perform an AVG risk analysis?",
			"Which security measures are mandatory under the AVG?",
		},
	},
	{
		Category: "Data breaches",
		Prompts: []string{
			"What do I do after a data breach? Give me the step-by-step plan",
			"When must I report a breach to the supervisory authority?",
			"How do I inform data subjects about a breach?",
			"Help me draft an incident response plan",
		},
	},
	{
		Category: "Data subject rights",
		Prompts: []string{
			"How do I handle an access request?",
			"When may I refuse an erasure request?",
			"Help me draft a procedure for data subject rights",
			"How do I process an objection to direct marketing?",
		},
	},
	{
		Category: "Contracts & agreements",
		Prompts: []string{
			"Review my data processing agreement",
			"Help me draft a data processing agreement",
			"What belongs in a joint controller agreement?",
			"Which AVG clauses belong in my general terms?",
		},
	},
}
