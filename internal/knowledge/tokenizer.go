package knowledge

import "github.com/pkoukk/tiktoken-go"

// Encoding is the subword tokenizer used for chunk sizing. It is the same
// encoding used for cost estimation, so chunk token counts line up with
// what the billing side sees.
type Encoding interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenEncoding struct {
	tk *tiktoken.Tiktoken
}

// NewCL100KEncoding returns the cl100k_base encoding.
func NewCL100KEncoding() (Encoding, error) {
	tk, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &tiktokenEncoding{tk: tk}, nil
}

func (e *tiktokenEncoding) Encode(text string) []int {
	return e.tk.Encode(text, nil, nil)
}

func (e *tiktokenEncoding) Decode(tokens []int) string {
	return e.tk.Decode(tokens)
}
