package convo

import (
	"fmt"

	"billbuddy/pos/internal/types"
)

// Field identifies the form field the voice sale is currently collecting.
// FieldNone means no sale conversation is active.
type Field int

const (
	FieldNone Field = iota
	FieldCustomerName
	FieldVehicleInfo
	FieldProductSearch
	FieldAddProduct
	FieldConfirmBill
)

func (f Field) String() string {
	switch f {
	case FieldNone:
		return "none"
	case FieldCustomerName:
		return "customer_name"
	case FieldVehicleInfo:
		return "vehicle_info"
	case FieldProductSearch:
		return "product_search"
	case FieldAddProduct:
		return "add_product"
	case FieldConfirmBill:
		return "confirm_bill"
	}
	return "unknown"
}

// Step is the display step number paralleling the field. Looping back from
// the confirm step returns to product search's number, not a new one.
func (f Field) Step() int { return int(f) }

const (
	promptCustomerName   = "What is the customer's name?"
	promptVehicleInfo    = "What is the vehicle information?"
	promptProductSearch  = "What product would you like to add?"
	promptFoundProducts  = "I found some products. Which one would you like to add?"
	promptGenerating     = "Generating your bill now."
	promptNoResults      = "I couldn't find any matching products. What product would you like to add?"
	promptEmptyQuery     = "Please tell me the product name to search for."
	promptClarifyPick    = "Sorry, I didn't catch that. Please say a number, like first or second."
	promptClarifyConfirm = "Please say yes to add another product, or no to generate the bill."
)

// Effect is an action the caller must carry out after a transition. Effects
// are returned in the order they must run.
type Effect interface{ effect() }

type SpeakEffect struct{ Text string }

type StopListenEffect struct{}

type ListenEffect struct{}

type FieldUpdateEffect struct {
	Field Field
	Value string
}

type SearchEffect struct{ Query string }

type SelectEffect struct {
	Index int
	Item  types.Product
}

type GenerateEffect struct{}

func (SpeakEffect) effect()       {}
func (StopListenEffect) effect()  {}
func (ListenEffect) effect()      {}
func (FieldUpdateEffect) effect() {}
func (SearchEffect) effect()      {}
func (SelectEffect) effect()      {}
func (GenerateEffect) effect()    {}

// Machine walks a caller through the voice sale form one field at a time.
// It owns no I/O: every transition returns the effects to perform.
type Machine struct {
	field      Field
	step       int
	lastPrompt string
	results    []types.Product
}

func New() *Machine { return &Machine{} }

func (m *Machine) Field() Field { return m.field }

func (m *Machine) Step() int { return m.step }

func (m *Machine) LastPrompt() string { return m.lastPrompt }

func (m *Machine) Results() []types.Product { return m.results }

// Start begins a new sale conversation at the customer name field.
func (m *Machine) Start() []Effect {
	m.field = FieldCustomerName
	m.step = FieldCustomerName.Step()
	return []Effect{m.speak(promptCustomerName), ListenEffect{}}
}

// Reset returns the machine to idle, dropping any pending results.
func (m *Machine) Reset() {
	m.field = FieldNone
	m.step = 0
	m.lastPrompt = ""
	m.results = nil
}

// OnTranscript consumes one final transcript for the active field.
func (m *Machine) OnTranscript(text string) []Effect {
	switch m.field {
	case FieldCustomerName:
		value := stripFiller(text, nameFillers)
		m.field = FieldVehicleInfo
		m.step = FieldVehicleInfo.Step()
		return []Effect{
			StopListenEffect{},
			m.speak(promptVehicleInfo),
			FieldUpdateEffect{Field: FieldCustomerName, Value: value},
			ListenEffect{},
		}

	case FieldVehicleInfo:
		value := stripFiller(text, vehicleFillers)
		m.field = FieldProductSearch
		m.step = FieldProductSearch.Step()
		return []Effect{
			StopListenEffect{},
			m.speak(promptProductSearch),
			FieldUpdateEffect{Field: FieldVehicleInfo, Value: value},
			ListenEffect{},
		}

	case FieldProductSearch:
		query := stripFiller(text, searchFillers)
		if query == "" {
			return m.reprompt(promptEmptyQuery)
		}
		// Stay here until results come back via OnSearchResults.
		return []Effect{StopListenEffect{}, SearchEffect{Query: query}}

	case FieldAddProduct:
		idx, err := parseOrdinal(text, len(m.results))
		if err == errOrdinalRange {
			n := len(m.results)
			return m.reprompt(fmt.Sprintf("There are only %d products. Please pick a number between 1 and %d.", n, n))
		}
		if err != nil {
			return m.reprompt(promptClarifyPick)
		}
		item := m.results[idx]
		m.results = nil
		m.field = FieldConfirmBill
		m.step = FieldConfirmBill.Step()
		return []Effect{
			StopListenEffect{},
			m.speak(fmt.Sprintf("Added %s to the cart. Would you like to add another product?", item.Name)),
			SelectEffect{Index: idx, Item: item},
			ListenEffect{},
		}

	case FieldConfirmBill:
		if containsAny(text, affirmatives) {
			m.field = FieldProductSearch
			m.step = FieldProductSearch.Step()
			return []Effect{StopListenEffect{}, m.speak(promptProductSearch), ListenEffect{}}
		}
		if containsAny(text, terminals) {
			m.Reset()
			return []Effect{StopListenEffect{}, SpeakEffect{Text: promptGenerating}, GenerateEffect{}}
		}
		return m.reprompt(promptClarifyConfirm)
	}
	return nil
}

// OnSearchResults delivers the catalog response for the pending search.
func (m *Machine) OnSearchResults(items []types.Product) []Effect {
	if m.field != FieldProductSearch {
		return nil
	}
	if len(items) == 0 {
		return []Effect{m.speak(promptNoResults), ListenEffect{}}
	}
	m.results = items
	m.field = FieldAddProduct
	m.step = FieldAddProduct.Step()
	return []Effect{m.speak(promptFoundProducts), ListenEffect{}}
}

func (m *Machine) speak(text string) SpeakEffect {
	m.lastPrompt = text
	return SpeakEffect{Text: text}
}

// reprompt keeps the current field and asks again. Retries are uncapped.
func (m *Machine) reprompt(text string) []Effect {
	return []Effect{StopListenEffect{}, m.speak(text), ListenEffect{}}
}
