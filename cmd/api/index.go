package main

import "net/http"

const uploadPage = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta charset="utf-8">
  <title>Consolidador de XMLs Fiscais</title>
</head>
<body>
  <h1>Consolidador de XMLs Fiscais</h1>
  <p>Envie um ou mais arquivos .zip contendo XMLs de NF-e ou CT-e.</p>
  <form action="/v1/process" method="post" enctype="multipart/form-data">
    <input type="file" name="archives" accept=".zip" multiple required>
    <button type="submit">Gerar planilha</button>
  </form>
</body>
</html>
`

func (app *application) uploadPageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(uploadPage))
}
