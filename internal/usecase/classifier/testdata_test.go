package classifier

const (
	AllTypesHTML = `<!DOCTYPE html>
<html>
<body>
<div role="list">
	<div role="listitem">
		<div role="heading">Your name *</div>
		<input type="text" aria-label="Your answer" />
	</div>
	<div role="listitem">
		<div role="heading">Tell us about yourself</div>
		<textarea aria-label="Your answer"></textarea>
	</div>
	<div role="listitem">
		<div role="heading">Favourite colour</div>
		<div role="radiogroup" aria-required="true">
			<div role="radio" data-value="Red"></div>
			<div role="radio"><span>Green</span></div>
			<div role="radio" aria-label="Blue"></div>
		</div>
	</div>
	<div role="listitem">
		<div role="heading">Hobbies</div>
		<div role="list">
			<div role="checkbox">Reading</div>
			<div role="checkbox">Hiking</div>
			<div role="checkbox">Chess</div>
			<div role="checkbox">Cooking</div>
		</div>
	</div>
	<div role="listitem">
		<div role="heading">Country</div>
		<div role="listbox" aria-expanded="false">
			<div role="option">Choose</div>
			<div role="option">France</div>
			<div role="option">Japan</div>
		</div>
	</div>
	<div role="listitem">
		<div role="heading">Section description</div>
		<p>No controls here.</p>
	</div>
</div>
</body>
</html>`

	LegacyHTML = `<!DOCTYPE html>
<html>
<body>
<div class="freebirdFormviewerViewNumberedItemContainer">
	<div class="freebirdFormviewerComponentsQuestionBaseRoot">
		<div class="freebirdFormviewerComponentsQuestionBaseTitle">Email
			<span class="freebirdFormviewerViewItemsItemRequiredAsterisk"></span>
		</div>
		<input type="email" />
	</div>
</div>
</body>
</html>`

	BrokenLabelHTML = `<!DOCTYPE html>
<html>
<body>
<div role="list">
	<div role="listitem">
		<div role="heading">   </div>
		<input type="text" />
	</div>
	<div role="listitem">
		<div role="heading">Age</div>
		<input type="number" />
	</div>
</div>
</body>
</html>`

	LooseRadiosHTML = `<!DOCTYPE html>
<html>
<body>
<div>
	<div role="radio" data-y="100">Yes</div>
	<div role="radio" data-y="130">No</div>
	<div role="radio" data-y="160">Maybe</div>
</div>
</body>
</html>`

	SpreadControlsHTML = `<!DOCTYPE html>
<html>
<body>
<span id="size-label">T-shirt size</span>
<div role="radiogroup" aria-labelledby="size-label">
	<div role="radio" data-y="300">S</div>
	<div role="radio" data-y="340">M</div>
</div>
<div>
	<div role="radio" data-y="500">Morning</div>
	<div role="radio" data-y="540">Evening</div>
</div>
<div>
	<div role="checkbox" data-y="700">Email</div>
	<div role="checkbox" data-y="900">Phone</div>
</div>
<label for="city">City *</label>
<input id="city" type="text" data-y="50" />
</body>
</html>`

	RequiredGroupsHTML = `<!DOCTYPE html>
<html>
<body>
<span id="plan-label">Plan</span>
<div role="radiogroup" aria-labelledby="plan-label" aria-required="true">
	<div role="radio" data-y="100">Basic</div>
	<div role="radio" data-y="130">Pro</div>
</div>
<div role="group" aria-label="Consent">
	<span aria-label="Required question"></span>
	<div role="checkbox" data-y="300">Terms</div>
</div>
<div>
	<div role="checkbox" data-y="500" aria-required="true">Newsletter</div>
</div>
<div role="group" aria-label="Extras">
	<div role="checkbox" data-y="700">Gift wrap</div>
</div>
</body>
</html>`
)
