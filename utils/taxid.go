package utils

// TaxIDShape matches a Polish NIP with optional '-' or space separators.
const TaxIDShape = `\d{3}[-\s]?\d{2}[-\s]?\d{2}[-\s]?\d{3}`

// StrictTaxIDShape requires a separator between every NIP block.
const StrictTaxIDShape = `\d{3}[-\s]\d{2}[-\s]\d{2}[-\s]\d{3}`

// BuyerTaxIDPattern only accepts a NIP that follows a "Nr klienta" or
// "Nabywca" label, possibly several lines later. Whichever label comes first
// in the text wins.
var BuyerTaxIDPattern = MustFieldPatternDotAll("buyer.nip",
	`(?:Nr\s*klienta.*?NIP\s*[:\-]?\s*(`+TaxIDShape+`))|(?:Nabywca.*?NIP\s*[:\-]?\s*(`+TaxIDShape+`))`)

// buyerGroupNabywca is the capture group of the "Nabywca" alternative.
const buyerGroupNabywca = 2

// SellerTaxIDPattern builds the direct "NIP <id>" search for a given id shape.
func SellerTaxIDPattern(shape string) FieldPattern {
	return MustFieldPattern("seller.nip", `NIP\s*[:\-]?\s*(`+shape+`)`)
}

// ResolveTaxIDs finds the buyer NIP through its label neighborhood and the
// seller NIP as the first direct match. When the buyer was found after a
// "Nabywca" label, that capture is skipped for the seller, since a buyer
// block printed first would otherwise be read as the seller's NIP.
func ResolveTaxIDs(text string, seller FieldPattern) (sellerID, buyerID ExtractedField) {
	buyerID = ExtractedField{Label: BuyerTaxIDPattern.Label}
	sellerID = ExtractedField{Label: seller.Label}

	buyerStart, buyerGroup := -1, 0
	if loc := BuyerTaxIDPattern.re.FindStringSubmatchIndex(text); loc != nil {
		for g := 1; g*2+1 < len(loc); g++ {
			if loc[g*2] >= 0 {
				buyerStart, buyerGroup = loc[g*2], g
				buyerID.Found = true
				buyerID.Value = text[loc[g*2]:loc[g*2+1]]
				break
			}
		}
	}
	skip := -1
	if buyerGroup == buyerGroupNabywca {
		skip = buyerStart
	}

	if seller.re == nil {
		return sellerID, buyerID
	}
	for _, loc := range seller.re.FindAllStringSubmatchIndex(text, -1) {
		if len(loc) < 4 || loc[2] < 0 || loc[2] == skip {
			continue
		}
		sellerID.Found = true
		sellerID.Value = text[loc[2]:loc[3]]
		break
	}
	return sellerID, buyerID
}
