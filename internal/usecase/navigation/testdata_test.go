package navigation

const (
	BothButtonsHTML = `<html><body>
	<div role="button" data-goto="1"><span>Next</span></div>
	<div role="button" data-goto="2"><span>Submit</span></div>
</body></html>`

	NextOnlyHTML = `<html><body>
	<p>Thank you for taking part in this survey.</p>
	<div role="button" data-goto="next"><span>Next</span></div>
</body></html>`

	SubmitOnlyHTML = `<html><body>
	<div role="button" data-goto="next"><span>Submit</span></div>
</body></html>`

	ConfirmationHTML = `<html><body>
	<div class="freebirdFormviewerViewResponseConfirmationMessage">Your response has been recorded.</div>
</body></html>`

	BlankHTML = `<html><body><div></div></body></html>`

	ThanksHTML = `<html><body><h1>Thank you!</h1><script>var t = "Next";</script></body></html>`

	DeadSubmitHTML = `<html><body>
	<div role="button"><span>Submit</span></div>
</body></html>`

	NoControlsHTML = `<html><body><p>Page one of a form without buttons.</p></body></html>`
)
