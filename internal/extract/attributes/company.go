package attributes

import "regexp"

// The suffix alternation tries the longer "GmbH & Co. KG" branch before
// GmbH, so a "Foo GmbH & Co. KG" string matches as one name rather than
// stopping at "Foo GmbH".
var companyPattern = regexp.MustCompile(`\b[A-ZÄÖÜ][A-Za-zÄÖÜäöüß0-9\s,&.-]+?(?:GmbH & Co\. KG|GmbH|AG|UG|KG)\b`)

// FindCompanies returns every company-name-shaped substring in text,
// matched against the common German corporate suffixes. This is a
// placeholder for proper named-entity recognition.
func FindCompanies(text string) []string {
	return companyPattern.FindAllString(text, -1)
}
