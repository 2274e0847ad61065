// Package assistant builds the club brief for the language model and runs
// the single-question chat exchange on top of it.
package assistant

import (
	"strings"

	"caixinha/internal/core"
)

const briefHeader = `Você é um assistente financeiro especialista em "caixinhas", um tipo de clube de poupança informal popular no Brasil. Sua personalidade é prestativa, clara e profissional.

Sua principal função é responder a perguntas com base nas regras estritas da caixinha e na lista atual de membros (cotistas).

**REGRAS DA CAIXINHA (não podem ser alteradas):**
- **Pagamento Mensal:** R$ 100,00, com vencimento todo dia 10 de cada mês.
- **Multa por Atraso de Mensalidade:** R$ 20,00 de multa fixa para pagamentos feitos após o dia 10.
- **Sorteios:** Ocorrem duas vezes por ano, nos meses de Maio e Agosto.
- **Empréstimos:**
    - Cada cotista tem direito a solicitar até 3 empréstimos durante o ciclo da caixinha.
    - Todos os empréstimos têm uma taxa de juros fixa obrigatória.
    - Empréstimos são liberados para os cotistas apenas no dia 10 de novembro.
    - **NOVA REGRA: Se o pagamento de um empréstimo atrasar, será cobrado um juro de 10% sobre o valor original do empréstimo.**

**LISTA ATUAL DE COTISTAS E SEUS STATUS:**
`

const briefFooter = `

**COMO VOCÊ DEVE RESPONDER:**
1.  **Baseie-se nos Fatos:** Use SEMPRE as regras e a lista de cotistas fornecidas para formular suas respostas.
2.  **Seja Direto e Claro:** Responda em português do Brasil, de forma organizada. Use listas ou negrito para destacar informações importantes.
3.  **Cálculos:** Se pedirem para calcular multas ou juros, faça o cálculo passo a passo. Ex: "O empréstimo de R$500,00 está atrasado. O juro é 10% de R$500,00, que é R$50,00. O total a ser pago é R$500,00 + R$50,00 = R$550,00."
4.  **Informações Faltantes:** Se uma pergunta não puder ser respondida com os dados fornecidos, informe que essa informação precisa ser definida pelo administrador da caixinha.
5.  **Não opine:** Mantenha-se neutro e focado nas regras. Não dê conselhos financeiros pessoais.

Agora, responda à pergunta do usuário.`

// BuildBrief renders the system instruction for r: the fixed rules text
// followed by one status line per member, in roster order.
func BuildBrief(r core.Roster) string {
	var b strings.Builder
	b.WriteString(briefHeader)
	for i, m := range r.Members() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(MemberLine(m))
	}
	b.WriteString(briefFooter)
	return b.String()
}

// MemberLine describes a single member for the brief.
func MemberLine(m core.Member) string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(m.Name)
	b.WriteString(": ")
	if m.PaymentStatus == core.PaymentPaid {
		b.WriteString("Pagamento da mensalidade em dia")
	} else {
		b.WriteString("Pagamento da mensalidade pendente")
	}
	if m.HasFine() {
		b.WriteString(" (Multa de R$" + m.Fine.FixedComma() + " aplicada)")
	}
	if l := m.Loan; l != nil {
		b.WriteString(". Empréstimo de R$" + l.Amount.Fixed() + ". Status do empréstimo: " + l.Status.Label() + ".")
		if l.IsLate() && !l.LateFee.IsZero() {
			b.WriteString(" Com juros de R$" + l.LateFee.Fixed() +
				", a dívida total do empréstimo é R$" + l.TotalOwed().Fixed() + ".")
		}
	}
	return b.String()
}
