package browser

import (
	"strconv"

	"paintbrush/dom"
)

// captureScript walks the body subtree and serializes it into the dom.Page
// shape. Only the computed-style subset the detectors read is copied out;
// cross-origin stylesheets whose rules cannot be touched come back as
// inaccessible digests.
var captureScript = `(() => {
	const MAX_ELEMENTS = ` + strconv.Itoa(dom.MaxCapturedElements) + `;
	const STYLE_PROPS = [
		'color', 'background-color', 'border-color', 'border-radius',
		'border-style', 'border-width', 'box-shadow',
		'font-family', 'font-size', 'font-weight', 'letter-spacing',
		'line-height', 'gap', 'grid-gap',
		'padding-top', 'padding-right', 'padding-bottom', 'padding-left',
		'margin-top', 'margin-right', 'margin-bottom', 'margin-left',
		'opacity', 'position', 'transform', 'transition',
		'z-index', 'animation-name', 'display',
	];

	const elements = [];
	const pseudoContent = (el, which) => {
		try {
			const c = getComputedStyle(el, which).content;
			return (c && c !== 'none' && c !== 'normal') ? c : '';
		} catch (e) {
			return '';
		}
	};

	const walk = (node, parent, depth) => {
		if (elements.length >= MAX_ELEMENTS) return;
		if (node.nodeType !== Node.ELEMENT_NODE) return;

		const computed = getComputedStyle(node);
		const style = {};
		for (const prop of STYLE_PROPS) {
			const v = computed.getPropertyValue(prop);
			if (v) style[prop] = v;
		}

		const attrs = {};
		for (const a of node.attributes) {
			attrs[a.name.toLowerCase()] = a.value.slice(0, 200);
		}

		const rect = node.getBoundingClientRect();
		const el = {
			index: elements.length,
			parent: parent,
			depth: depth,
			tag: node.tagName.toLowerCase(),
			id: node.id || '',
			classes: Array.from(node.classList),
			attrs: attrs,
			style: style,
			rect: { w: Math.round(rect.width), h: Math.round(rect.height) },
			hidden: !node.offsetParent && computed.position !== 'fixed',
			shadowRoot: !!node.shadowRoot,
			before: pseudoContent(node, '::before'),
			after: pseudoContent(node, '::after'),
			text: (node.textContent || '').replace(/\s+/g, ' ').trim().slice(0, 80),
		};

		const index = el.index;
		elements.push(el);
		for (const child of node.children) {
			walk(child, index, depth + 1);
		}
	};

	if (document.body) walk(document.body, -1, 0);

	const sheets = [];
	const rootVars = {};
	for (const sheet of document.styleSheets) {
		const digest = { accessible: false, keyframes: [], media: [], usesInherit: false };
		try {
			const rules = sheet.cssRules;
			digest.accessible = true;
			for (const rule of rules) {
				if (rule.type === CSSRule.KEYFRAMES_RULE) {
					digest.keyframes.push(rule.name);
				} else if (rule.type === CSSRule.MEDIA_RULE) {
					digest.media.push(rule.conditionText || rule.media.mediaText);
				} else if (rule.type === CSSRule.STYLE_RULE) {
					if (!digest.usesInherit && rule.cssText.includes('inherit')) {
						digest.usesInherit = true;
					}
					if (rule.selectorText === ':root' || rule.selectorText === 'html') {
						for (const prop of rule.style) {
							if (prop.startsWith('--')) {
								rootVars[prop] = rule.style.getPropertyValue(prop).trim();
							}
						}
					}
				}
			}
		} catch (e) {
			// Cross-origin sheet, rules unreadable.
		}
		sheets.push(digest);
	}

	return {
		url: location.href,
		hostname: location.hostname,
		path: location.pathname,
		title: document.title,
		elements: elements,
		sheets: sheets,
		rootVars: rootVars,
	};
})()`
