package docs

import (
	"errors"
	"fmt"
	"strings"

	docs "google.golang.org/api/docs/v1"
)

// MaxNestingDepth is the deepest table nesting FlattenDocument follows
const MaxNestingDepth = 32

// ErrNestingTooDeep is returned for documents whose tables nest deeper than
// MaxNestingDepth
var ErrNestingTooDeep = errors.New("document nesting too deep")

// FlattenDocument extracts the plain text of a document body. Paragraphs
// contribute their text runs in order; tables contribute each cell's content
// row by row. Other structural elements are ignored.
func FlattenDocument(doc *docs.Document) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("document is nil")
	}
	if doc.Body == nil {
		return "", nil
	}

	var text strings.Builder
	if err := flattenContent(&text, doc.Body.Content, 0); err != nil {
		return "", err
	}
	return text.String(), nil
}

func flattenContent(text *strings.Builder, elements []*docs.StructuralElement, depth int) error {
	if depth > MaxNestingDepth {
		return fmt.Errorf("%w: more than %d levels", ErrNestingTooDeep, MaxNestingDepth)
	}

	for _, element := range elements {
		if element == nil {
			continue
		}
		switch {
		case element.Paragraph != nil:
			for _, el := range element.Paragraph.Elements {
				if el != nil && el.TextRun != nil {
					text.WriteString(el.TextRun.Content)
				}
			}
		case element.Table != nil:
			for _, row := range element.Table.TableRows {
				if row == nil {
					continue
				}
				for _, cell := range row.TableCells {
					if cell == nil {
						continue
					}
					if err := flattenContent(text, cell.Content, depth+1); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}
