// Package reportxml serializes a control-time sliding report fragment tree
// into an XML document. It is kept separate from certvalidator/ltv so that
// the sliding engine itself has no XML dependency; only callers that need a
// document to archive or hand to a report viewer import this package.
package reportxml

import (
	"io"
	"time"

	"github.com/beevik/etree"

	"github.com/dssgo/ltv/certvalidator/ltv"
)

const rootElement = "ControlTimeSlidingData"

// Marshal renders the given fragment tree as an XML document rooted at
// <ControlTimeSlidingData>. Each ReportFragment becomes a <Certificate>
// element (root fragment aside) carrying one <Constraint> child per
// recorded ConstraintRecord, in the evaluation order the engine produced
// them.
func Marshal(root *ltv.ReportFragment) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	rootElem := doc.CreateElement(rootElement)
	writeConstraints(rootElem, root)

	for _, child := range root.Children {
		writeFragment(rootElem, child)
	}

	doc.Indent(2)
	return doc
}

// Write marshals the fragment tree and writes it to w.
func Write(root *ltv.ReportFragment, w io.Writer) (int64, error) {
	return Marshal(root).WriteTo(w)
}

// WriteToString marshals the fragment tree and returns it as a string.
func WriteToString(root *ltv.ReportFragment) (string, error) {
	return Marshal(root).WriteToString()
}

func writeFragment(parent *etree.Element, fragment *ltv.ReportFragment) {
	elem := parent.CreateElement("Certificate")
	elem.CreateAttr("id", fragment.Name)
	writeConstraints(elem, fragment)
	for _, child := range fragment.Children {
		writeFragment(elem, child)
	}
}

func writeConstraints(parent *etree.Element, fragment *ltv.ReportFragment) {
	for _, c := range fragment.Constraints {
		constraintElem := parent.CreateElement("Constraint")
		constraintElem.CreateAttr("tag", c.Tag)
		constraintElem.CreateAttr("status", c.Status.String())
		constraintElem.CreateAttr("at", c.At.Format(time.RFC3339))
		if c.Detail != "" {
			constraintElem.SetText(c.Detail)
		}
	}
}
