package confluence

import "strings"

// Headings of the static sections appended to every rendered page.
var SectionHeadings = []string{
	"h2. Key Concepts",
	"h2. Examples",
	"h3. Terrestrial Food Chain",
	"h3. Marine Food Chain",
	"h2. Impact on Ecosystems",
}

const staticSections = `h2. Key Concepts

* Food Chain Definition
* Producers and Consumers
* Energy Flow
* Trophic Levels

h2. Examples

h3. Terrestrial Food Chain
* Grass → Grasshopper → Frog → Snake → Hawk

h3. Marine Food Chain
* Phytoplankton → Zooplankton → Small Fish → Large Fish → Shark

h2. Impact on Ecosystems

* Balance in Nature
* Environmental Factors
* Human Impact
`

// RenderPage builds the wiki markup stored on the page: the caller's header as the
// title line, the caller's content, then the fixed sections.
func RenderPage(header, content string) string {
	var b strings.Builder
	b.Grow(len(header) + len(content) + len(staticSections) + 16)
	b.WriteString("\nh1. ")
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(content)
	b.WriteString("\n\n")
	b.WriteString(staticSections)
	return b.String()
}
