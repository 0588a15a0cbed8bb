package flow

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/advocata/intakepipe/internal/models"
)

// Canned Brazilian Portuguese copy used across the intake conversation.
const (
	phoneRequestPrompt = `Obrigado por fornecer essas informações!

Para finalizar seu atendimento e conectá-lo diretamente com nossa equipe jurídica, preciso do seu número de WhatsApp.

Por favor, digite seu número completo com DDD (exemplo: 11999999999):`

	phoneRetryPrompt = "Por favor, digite um número válido com DDD (exemplo: 11999999999):"

	redirectPromptFormat = "Por favor, responda à pergunta atual: %s"

	technicalDifficultyReply = "Desculpe, estou enfrentando dificuldades técnicas. Nossa equipe entrará em contato em breve para ajudá-lo."

	handoffMessageFormat = `Olá %s! 👋

Recebemos suas informações através do nosso chatbot e nossa equipe jurídica está pronta para ajudá-lo.

📋 *Resumo do seu caso:*
• Área: %s
• Situação: %s

Em breve entraremos em contato para agendar uma consulta personalizada.

Atenciosamente,
Equipe Jurídica`

	phoneConfirmationFormat = `Perfeito! Confirmamos seu número: %s

✅ Suas informações foram registradas com sucesso
📱 Enviamos uma mensagem para seu WhatsApp
👨‍💼 Nossa equipe entrará em contato em breve

Agora posso responder outras dúvidas que você tenha sobre nossos serviços jurídicos. Como posso ajudá-lo?`
)

// DefaultSystemPrompt guides the assistant when no custom prompt is
// configured via environment or prompt file.
const DefaultSystemPrompt = `Você é um assistente jurídico especializado de um escritório de advocacia no Brasil.

DIRETRIZES IMPORTANTES:
- Responda SEMPRE em português brasileiro
- Mantenha respostas profissionais, concisas e focadas em questões jurídicas
- NÃO forneça aconselhamento jurídico específico ou definitivo
- Sempre recomende consulta presencial para casos específicos
- Use linguagem acessível, mas técnica quando necessário
- Demonstre empatia e compreensão
- Foque em orientações gerais e procedimentos legais
- Mencione a importância de documentação e prazos quando relevante

ÁREAS DE ESPECIALIZAÇÃO:
- Direito Penal
- Direito Civil
- Direito Trabalhista
- Direito de Família
- Direito Empresarial

FORMATO DE RESPOSTA:
- Máximo 3 parágrafos
- Linguagem clara e objetiva
- Sempre termine sugerindo agendamento de consulta para análise detalhada

Você tem acesso ao histórico da conversa para fornecer respostas contextualizadas.`

// promptFile is the JSON shape of an external system prompt file.
type promptFile struct {
	SystemPrompt string `json:"system_prompt"`
}

// LoadSystemPrompt resolves the assistant system prompt. Resolution order:
// the INTAKEPIPE_SYSTEM_PROMPT environment variable, then the JSON file at
// path (when non-empty), then DefaultSystemPrompt.
func LoadSystemPrompt(path string) (string, error) {
	if env := os.Getenv("INTAKEPIPE_SYSTEM_PROMPT"); env != "" {
		return env, nil
	}
	if path == "" {
		return DefaultSystemPrompt, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSystemPrompt, nil
		}
		return "", fmt.Errorf("failed to read prompt file: %w", err)
	}
	var pf promptFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return "", fmt.Errorf("failed to parse prompt file: %w", err)
	}
	if pf.SystemPrompt == "" {
		return DefaultSystemPrompt, nil
	}
	return pf.SystemPrompt, nil
}

// LoadHeuristics resolves the extraction and relevance dictionaries from the
// JSON file at path, falling back to the built-in pt-BR defaults when path is
// empty or the file does not exist. Fields absent from the file keep their
// defaults.
func LoadHeuristics(path string) (models.Heuristics, error) {
	h := models.DefaultHeuristics()
	if path == "" {
		return h, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return h, nil
		}
		return h, fmt.Errorf("failed to read heuristics file: %w", err)
	}
	if err := json.Unmarshal(data, &h); err != nil {
		return models.DefaultHeuristics(), fmt.Errorf("failed to parse heuristics file: %w", err)
	}
	return h, nil
}
