package models

// StepKind decides what activating a step does
type StepKind string

const (
	StepKindLink   StepKind = "link"
	StepKindAction StepKind = "action"
	StepKindVideo  StepKind = "video" // completes only after the simulated watch finishes
)

// OnboardingQuestID is the quest id every progress row of the checklist is stored under.
const OnboardingQuestID = "onboarding"

// QuestCompleteMessage is shown once every step is done. Nothing is persisted for it.
const QuestCompleteMessage = `Quest Completed! You've earned the "Initiate" Badge.`

// QuestStep is one checklist entry plus the session's view of it.
type QuestStep struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Kind        StepKind       `json:"type"`
	ActionURL   string         `json:"action_url,omitempty"`
	Completed   bool           `json:"completed"`
	Status      MutationStatus `json:"status,omitempty"`
}

// OnboardingSteps is the static "First 48" catalog (copied per session, never mutated).
var OnboardingSteps = []QuestStep{
	{
		ID:          "1",
		Title:       "Join the Inner Circle",
		Description: "Connect with other members in our private Discord.",
		Kind:        StepKindLink,
	},
	{
		ID:          "2",
		Title:       "Community Connector",
		Description: "Reply to 3 members to make your first friends.",
		Kind:        StepKindAction,
		ActionURL:   "#",
	},
	{
		ID:          "3",
		Title:       "Watch the Welcome Masterclass",
		Description: "The 5-minute guide to getting maximum value.",
		Kind:        StepKindVideo,
	},
}

// CloneSteps returns a fresh copy of a catalog.
func CloneSteps(steps []QuestStep) []QuestStep {
	out := make([]QuestStep, len(steps))
	copy(out, steps)
	return out
}
