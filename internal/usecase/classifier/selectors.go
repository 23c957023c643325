package classifier

import "form-agent/internal/usecase/locator"

// Selectors describes where questions live in the page. Relative expressions
// (starting with ".") are evaluated against a question container, absolute
// ones against the document. Defaults follow Google Forms markup, old and new.
type Selectors struct {
	Labels     locator.SelectorSet
	Containers locator.SelectorSet

	TextInput string
	TextArea  string
	Radio     string
	Checkbox  string
	Listbox   string
	Option    string

	RequiredMarkers locator.SelectorSet
	GroupLabels     locator.SelectorSet

	RawTextInput string
	RawTextArea  string
	RawRadio     string
	RawCheckbox  string
	RawListbox   string
	RawOption    string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Labels: locator.SelectorSet{
			"//div[contains(@class,'freebirdFormviewerComponentsQuestionBaseTitle')]",
			"//div[@role='listitem']//div[@role='heading']",
		},
		Containers: locator.SelectorSet{
			"./ancestor::div[contains(@class,'freebirdFormviewerComponentsQuestionBaseRoot')][1]",
			"./ancestor::div[contains(@class,'freebirdFormviewerViewNumberedItemContainer')][1]",
			"./ancestor::div[@role='listitem'][1]",
			"./../..",
		},

		TextInput: ".//input[@type='text' or @type='email' or @type='tel' or @type='number' or @type='url' or @type='date']",
		TextArea:  ".//textarea",
		Radio:     ".//*[@role='radio']",
		Checkbox:  ".//*[@role='checkbox']",
		Listbox:   ".//*[@role='listbox']",
		Option:    ".//*[@role='option']",

		RequiredMarkers: locator.SelectorSet{
			".//span[contains(@class,'freebirdFormviewerViewItemsItemRequiredAsterisk')]",
			".//*[@aria-label='Required question']",
			".//*[@aria-required='true']",
		},
		GroupLabels: locator.SelectorSet{
			"./ancestor::*[@role='radiogroup' or @role='group' or @role='list'][1]",
		},

		RawTextInput: "//input[@type='text' or @type='email' or @type='tel' or @type='number']",
		RawTextArea:  "//textarea",
		RawRadio:     "//*[@role='radio']",
		RawCheckbox:  "//*[@role='checkbox']",
		RawListbox:   "//*[@role='listbox']",
		RawOption:    "//*[@role='option']",
	}
}
