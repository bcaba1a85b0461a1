package fiscal

import (
	"github.com/go-gota/gota/dataframe"
)

// XML namespaces of the two fiscal document dialects. The same upload may mix
// both document types, so every field lookup searches both.
const (
	NfeNamespace = "http://www.portalfiscal.inf.br/nfe"
	CteNamespace = "http://www.portalfiscal.inf.br/cte"
)

// Column names of the consolidated report. Kept identical to the spreadsheet
// headers users already receive.
const (
	ColMonth  = "MÊS"
	ColDate   = "DATA"
	ColTime   = "HORA"
	ColNumber = "NUMERO_NF"
	ColKey    = "CHAVE DE 44 DÍGITOS"
	ColTotal  = "VALOR TOTAL"
	ColPaid   = "VALOR PAGO"
)

// Document holds the fields extracted from one XML file. Every field is
// optional and independent; an empty string means the source did not carry
// that value. Monetary fields keep the raw source text when it cannot be
// interpreted as a number.
type Document struct {
	Month  string `dataframe:"MÊS,string"`
	Date   string `dataframe:"DATA,string"`
	Time   string `dataframe:"HORA,string"`
	Number string `dataframe:"NUMERO_NF,string"`
	Key    string `dataframe:"CHAVE DE 44 DÍGITOS,string"`
	Total  string `dataframe:"VALOR TOTAL,string"`
	Paid   string `dataframe:"VALOR PAGO,string"`
}

// ToDataFrame converts a batch of extracted documents into a DataFrame with
// one row per document.
func ToDataFrame(docs []Document) (dataframe.DataFrame, error) {
	df := dataframe.LoadStructs(docs)
	return df, df.Error()
}
