// Package docs reads the writing guidelines document from Google Docs.
//
// The Client authenticates lazily through the google package (cached token,
// refresh, or the interactive loopback flow) and returns the document body as
// plain text. FlattenDocument walks paragraphs and tables recursively, with
// tables read row by row, and refuses documents nested deeper than
// MaxNestingDepth.
//
// Example usage:
//
//	client := docs.NewClient(docs.Config{
//	    CredentialsFile: "credentials.json",
//	    TokenFile:       "docs.token",
//	})
//
//	text, err := client.GetDocumentText(ctx, "1ABC123xyz")
//	if err != nil {
//	    log.Fatal(err)
//	}
package docs
