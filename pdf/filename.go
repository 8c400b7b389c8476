package pdf

import (
	"regexp"
	"strings"
)

// DefaultFilenameToken replaces a blank company name in export filenames.
const DefaultFilenameToken = "document"

var (
	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
	pathSeparator = strings.NewReplacer("/", "-", `\`, "-")
)

// Filename derives the download name from the document type and company,
// e.g. "Bon_de_commande_Acme_Corp.pdf".
func Filename(docType, company string) string {
	name := DefaultFilenameToken
	if strings.TrimSpace(company) != "" {
		name = whitespaceRun.ReplaceAllString(company, "_")
	}
	base := whitespaceRun.ReplaceAllString(docType, "_") + "_" + name
	return pathSeparator.Replace(base) + ".pdf"
}
