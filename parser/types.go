package parser

// Result is the best-effort extraction of a business website. The structure
// booleans and contact fields are heuristic inferences from arbitrary
// third-party HTML and must not be treated as verified data. When Error is
// set the remaining fields are zero-valued.
type Result struct {
	URL         string       `json:"url"`
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Keywords    string       `json:"keywords,omitempty"`
	Headings    Headings     `json:"headings"`
	Images      []Image      `json:"images"`
	Links       []Link       `json:"links"`
	SocialLinks []SocialLink `json:"socialLinks"`
	ContactInfo ContactInfo  `json:"contactInfo"`
	Structure   Structure    `json:"structure"`
	Error       string       `json:"error,omitempty"`
}

// Headings holds the trimmed text of the page's h1-h3 elements in document
// order.
type Headings struct {
	H1 []string `json:"h1"`
	H2 []string `json:"h2"`
	H3 []string `json:"h3"`
}

type Image struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type ContactInfo struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Structure flags are inferred by selector and keyword heuristics.
type Structure struct {
	HasNavigation  bool `json:"hasNavigation"`
	HasFooter      bool `json:"hasFooter"`
	HasContactForm bool `json:"hasContactForm"`
	HasBookingForm bool `json:"hasBookingForm"`
}
