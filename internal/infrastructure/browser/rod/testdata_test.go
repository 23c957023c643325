package rod

const (
	FormHTML = `<!DOCTYPE html>
<html>
<body>
	<div role="listitem" id="q1">
		<div role="heading">Name</div>
		<input id="name" type="text" value="old" aria-label="Your answer" />
	</div>
	<div role="listitem" id="q2" style="margin-top: 200px">
		<div role="heading">Colour</div>
		<div role="radiogroup">
			<div role="radio" id="red" aria-checked="false">Red</div>
			<div role="radio" id="blue" aria-checked="false">Blue</div>
		</div>
	</div>
	<div id="hidden" style="display:none">secret</div>
	<div id="editable" contenteditable="true">draft</div>
	<div id="result"></div>
	<script>
		document.querySelectorAll('[role=radio]').forEach(function (r) {
			r.addEventListener('click', function () {
				r.setAttribute('aria-checked', 'true');
				document.getElementById('result').textContent = r.id;
			});
		});
	</script>
</body>
</html>`

	CoveredButtonHTML = `<!DOCTYPE html>
<html>
<body>
	<button id="btn" onclick="document.getElementById('result').textContent='clicked'">Next</button>
	<div style="position:fixed;top:0;left:0;width:100%;height:100%;background:white"></div>
	<div id="result"></div>
</body>
</html>`

	SecondPageHTML = `<!DOCTYPE html>
<html><body><h1>Page two</h1></body></html>`
)
