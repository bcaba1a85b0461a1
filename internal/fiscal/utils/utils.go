package utils

import "github.com/go-gota/gota/dataframe"

func ContainsString(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}

func HasColumn(df *dataframe.DataFrame, col string) bool {
	if df == nil {
		return false
	}
	return ContainsString(df.Names(), col)
}

func GetStr(col string, rowIdx int, df *dataframe.DataFrame) string {
	if df == nil {
		return ""
	}

	if ContainsString(df.Names(), col) {
		return df.Col(col).Elem(rowIdx).String()
	}
	return ""
}
