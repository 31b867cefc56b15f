package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var bodyTemplate = template.Must(template.New("export").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Exportação de Contatos</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
    .container { max-width: 600px; margin: 0 auto; padding: 20px; }
    .header { background: #4CAF50; color: white; padding: 20px; border-radius: 8px 8px 0 0; text-align: center; }
    .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 8px 8px; }
    .stats { background: white; padding: 15px; border-radius: 6px; margin: 20px 0; border-left: 4px solid #4CAF50; }
    .footer { text-align: center; margin-top: 30px; color: #666; font-size: 12px; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>📧 Exportação de Contatos</h1>
    </div>
    <div class="content">
      <h2>Olá!</h2>
      <p>Sua exportação de contatos foi processada com sucesso! 🎉</p>
      <div class="stats">
        <h3>📊 Detalhes da Exportação:</h3>
        <ul>
          <li><strong>Total de contatos:</strong> {{.Count}}</li>
          <li><strong>Formato:</strong> CSV (Excel compatível)</li>
          <li><strong>Data/Hora:</strong> {{.Timestamp}}</li>
        </ul>
      </div>
      <p>O arquivo CSV está em anexo e pode ser aberto diretamente no Excel, Google Sheets ou qualquer editor de planilhas.</p>
      <p><strong>Colunas incluídas:</strong></p>
      <ul>
        <li>Nome</li>
        <li>Email</li>
        <li>Telefone</li>
        <li>Data de Criação</li>
      </ul>
      <div class="footer">
        <p>Este email foi enviado automaticamente pelo sistema Guard Contatos.</p>
        <p>Se você não solicitou esta exportação, pode ignorar este email com segurança.</p>
      </div>
    </div>
  </div>
</body>
</html>`))

// Subject is the subject line of an export email.
func Subject(count int, now time.Time) string {
	return fmt.Sprintf("📧 Exportação de %d contatos - %s", count, now.Format("02/01/2006"))
}

// HTMLBody renders the body of an export email. now should already be in the recipient's zone.
func HTMLBody(count int, now time.Time) (string, error) {
	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Count     int
		Timestamp string
	}{
		Count:     count,
		Timestamp: now.Format("02/01/2006, 15:04:05"),
	})
	if err != nil {
		return "", fmt.Errorf("render email body: %w", err)
	}
	return buf.String(), nil
}
