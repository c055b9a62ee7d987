package command

import "strings"

// Command is the classified intent of an idle-mode transcript.
type Command int

const (
	None Command = iota
	StartSale
)

func (c Command) String() string {
	if c == StartSale {
		return "start_sale"
	}
	return "none"
}

// StartSalePrompt is spoken while handing control to the sale flow. The
// caller must let it settle before navigating so the audio is not cut off.
const StartSalePrompt = "Creating a new bill. Let me take you to the sales page."

// Trigger phrases for starting a sale. Matching is substring containment
// over the lower-cased transcript, so a trigger anywhere in the utterance
// fires it.
var saleTriggers = []string{
	"bill banao",
	"create a sell bill",
	"create bill",
	"sell bill",
	"sell product",
	"new sale",
}

// Classify maps a transcript to a command. It performs no side effects;
// unrecognized speech in idle mode is intentionally ignored.
func Classify(transcript string) Command {
	t := strings.ToLower(transcript)
	for _, trig := range saleTriggers {
		if strings.Contains(t, trig) {
			return StartSale
		}
	}
	return None
}
