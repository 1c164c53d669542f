package news

import (
	"encoding/json"
)

// Search API wire types. Only the fields the service reads are declared.

type searchResponse struct {
	Status   string `json:"status"`
	Response struct {
		Docs []json.RawMessage `json:"docs"`
	} `json:"response"`
}

type Document struct {
	Headline   Headline        `json:"headline"`
	WebURL     string          `json:"web_url"`
	Snippet    string          `json:"snippet"`
	Abstract   string          `json:"abstract"`
	PubDate    string          `json:"pub_date"`
	Multimedia json.RawMessage `json:"multimedia"` // object of renditions or array of media entries
}

type Headline struct {
	Main string `json:"main"`
}

// UnmarshalJSON decodes each field on its own. A field of the wrong type is
// left empty instead of failing the document; only a document that is not a
// JSON object is an error.
func (d *Document) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	*d = Document{
		Headline:   Headline{Main: headlineField(fields["headline"])},
		WebURL:     stringField(fields["web_url"]),
		Snippet:    stringField(fields["snippet"]),
		Abstract:   stringField(fields["abstract"]),
		PubDate:    stringField(fields["pub_date"]),
		Multimedia: fields["multimedia"],
	}
	return nil
}

func stringField(raw json.RawMessage) string {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	return value
}

// headlineField reads headline.main; a bare string headline is taken as is.
func headlineField(raw json.RawMessage) string {
	var headline struct {
		Main json.RawMessage `json:"main"`
	}
	if err := json.Unmarshal(raw, &headline); err == nil {
		return stringField(headline.Main)
	}
	return stringField(raw)
}
