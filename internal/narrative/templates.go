package narrative

import (
	"bytes"
	"fmt"
	"text/template"
)

// Templates renders the fallback narrative and the writer prompt.
type Templates struct {
	tmpl *template.Template
}

// NewTemplates parses the built-in templates.
func NewTemplates() *Templates {
	funcMap := template.FuncMap{
		"amount": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"pct":    func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"div":    func(a, b float64) float64 { return a / b },
	}
	t := template.New("narrative").Funcs(funcMap)
	template.Must(t.New("fallback").Parse(fallbackTemplate))
	template.Must(t.New("prompt").Parse(promptTemplate))
	template.Must(t.New("partners").Parse(partnersTemplate))
	return &Templates{tmpl: t}
}

// Fallback renders the deterministic narrative.
func (t *Templates) Fallback(f Facts) (string, error) {
	return t.execute("fallback", f)
}

// Prompt renders the instructions sent to the narrative writer.
func (t *Templates) Prompt(f Facts) (string, error) {
	return t.execute("prompt", f)
}

func (t *Templates) execute(name string, f Facts) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.ExecuteTemplate(&buf, name, f); err != nil {
		return "", fmt.Errorf("failed to render %s narrative: %w", name, err)
	}
	return buf.String(), nil
}

var defaultTemplates = NewTemplates()

// Fallback renders the deterministic narrative with the built-in templates.
func Fallback(f Facts) string {
	text, err := defaultTemplates.Fallback(f)
	if err != nil {
		// Facts has no fields the template can fail on.
		panic(err)
	}
	return text
}

// Prompt renders the writer prompt with the built-in templates.
func Prompt(f Facts) string {
	text, err := defaultTemplates.Prompt(f)
	if err != nil {
		panic(err)
	}
	return text
}

const fallbackTemplate = `## 🌱 Seu Relatório de Pegada de Carbono

### 📊 Resultado Total

**Mensal:** {{amount .Total}} kg CO2e  
**Anual:** {{amount .Annual}} kg CO2e ({{amount .AnnualTonnes}} toneladas)

### 🔍 Análise por Categoria

{{range .Breakdown}}- **{{.Label}}:** {{amount .Value}} kg CO2e ({{pct .Percent}}%)
{{end}}
### 🌳 Compensação

**Árvores necessárias:** {{.Trees}} árvores/ano

**Melhores espécies:**
1. Jequitibá - até 50 ton CO2/20 anos
2. Ipê-roxo - ~20 ton CO2/20 anos
3. Pau-brasil - ~15 ton CO2/20 anos

### 💰 Investimento

**Anual:** R$ {{amount .CostMin}} a R$ {{amount .CostMax}}

### 🌍 Organizações Parceiras

1. **SOS Mata Atlântica** - [sosma.org.br](https://www.sosma.org.br) - (11) 3055-7888
2. **Iniciativa Verde** - [iniciativaverde.org.br](https://www.iniciativaverde.org.br) - (11) 3063-2211
3. **Moss.Earth** - [moss.earth](https://moss.earth)
4. **IBF** - [ibflorestas.org.br](https://www.ibflorestas.org.br) - (31) 3491-7430
5. **Biofílica** - [biofilica.com.br](https://www.biofilica.com.br) - (11) 3093-4400

Cada ação conta! Reduza primeiro, depois compense. 💚`

const promptTemplate = `
Você é o Carbon. Crie um relatório COMPLETO, DETALHADO e PERSONALIZADO sobre pegada de carbono.

DADOS DO USUÁRIO:
Total mensal: {{amount .Total}} kg CO2e
Total anual: {{amount .Annual}} kg CO2e ({{amount .AnnualTonnes}} toneladas)
{{range .Context}}
- {{.}}{{end}}

Distribuição:
{{range .Breakdown}}- {{.Label}}: {{amount .Value}} kg CO2e ({{pct .Percent}}%)
{{end}}
Categoria de maior impacto: {{.Largest.Label}} ({{amount .Largest.Value}} kg CO2e)

ESTRUTURA DO RELATÓRIO (COPIE EXATAMENTE):

## 🌱 Seu Relatório de Pegada de Carbono

Olá! Aqui está sua análise completa. Vamos construir um futuro mais verde juntos! 💚

### 📊 Resultado Total

**Mensal:** {{amount .Total}} kg CO2e  
**Anual:** {{amount .Annual}} kg CO2e ({{amount .AnnualTonnes}} toneladas)

### 🔍 Análise Detalhada por Categoria

[Análise detalhada de CADA categoria com percentuais e interpretação. Destaque a categoria de maior impacto ({{.Largest.Label}}) e explique o porquê em 2-3 frases. Compare com médias nacionais (média Brasil: 400-500 kg CO2e/mês)]

### 💡 Dicas Personalizadas para Redução

[Dê 5-6 dicas ESPECÍFICAS baseadas nas categorias de maior impacto. Use formato de lista numerada com **negrito** no título da dica]

### 🌳 Como Compensar Sua Pegada de Carbono

Para compensar suas emissões, você pode investir em projetos de reflorestamento ou comprar créditos de carbono certificados.

#### Árvores Necessárias

São necessárias **{{.Trees}} árvores** para compensar sua emissão anual de {{amount .Annual}} kg CO2e.

**Melhores Espécies Nativas Brasileiras para Compensação:**

1. **Jequitibá (Cariniana legalis)** - Absorve até 50 toneladas de CO2 em 20 anos
2. **Ipê-roxo (Handroanthus impetiginosus)** - Absorve ~20 toneladas de CO2 em 20 anos
3. **Pau-brasil (Paubrasilia echinata)** - Absorve ~15 toneladas de CO2 em 20 anos
4. **Aroeira (Myracrodruon urundeuva)** - Resistente e de crescimento rápido
5. **Jatobá (Hymenaea courbaril)** - Árvore longeva, até 14 toneladas de CO2

**Recomendação:** Plante um mix de espécies nativas da sua região para melhor biodiversidade.

{{template "partners"}}
#### 💰 Investimento Estimado

**Compensação Mensal:** R$ {{amount (div .CostMin 12)}} a R$ {{amount (div .CostMax 12)}}

**Compensação Anual:** R$ {{amount .CostMin}} a R$ {{amount .CostMax}}

### 🎯 Próximos Passos

1. **Reduza primeiro:** Implemente as dicas de redução acima
2. **Escolha uma organização:** Compare projetos e certificações
3. **Invista em compensação:** Plante árvores ou compre créditos
4. **Monitore anualmente:** Refaça o cálculo e acompanhe sua evolução
5. **Compartilhe:** Inspire amigos e família a também medirem sua pegada

---

**Lembre-se:** A melhor compensação é REDUZIR emissões primeiro, depois compensar o restante. Cada ação conta! 🌱💚

REGRAS:
- COPIE a estrutura EXATAMENTE
- Use ## para título principal, ### para subtítulos
- Use **negrito** em títulos e nomes importantes
- Máximo 600 palavras
- Tom brasileiro, técnico mas acessível
- Links devem estar em formato Markdown [texto](url)
- Emojis: 🌱 💚 🌳 📊 🔍 💡 🎯 📞 📧 💰
`

const partnersTemplate = `#### Organizações Parceiras

**1. 🌳 SOS Mata Atlântica** [Link: https://www.sosma.org.br](https://www.sosma.org.br)  
📞 Tel: (11) 3055-7888 | 📧 Email: atendimento@sosma.org.br  
Fundação desde 1986, líder em projetos de reflorestamento da Mata Atlântica. Plantio de mudas nativas com monitoramento via GPS.  
💰 Custo: R$ 30-50 por tonelada CO2

**2. 🌱 Iniciativa Verde** [Link: https://www.iniciativaverde.org.br](https://www.iniciativaverde.org.br)  
📞 Tel: (11) 3063-2211 | 📧 Email: contato@iniciativaverde.org.br  
ONG desde 1997, foco em reflorestamento e educação ambiental. Certificação transparente e relatórios anuais.  
💰 Custo: R$ 40-60 por tonelada CO2

**3. 🌿 Moss.Earth (MCO2 Token)** [Link: https://moss.earth](https://moss.earth)  
📧 Email: contato@moss.earth  
Primeira plataforma brasileira de crédito de carbono tokenizado. Projetos REDD+ na Amazônia certificados por Verra.  
💰 Custo: R$ 50-80 por tonelada CO2

**4. 🌲 IBF - Instituto Brasileiro de Florestas** [Link: https://www.ibflorestas.org.br](https://www.ibflorestas.org.br)  
📞 Tel: (31) 3491-7430 | 📧 Email: contato@ibflorestas.org.br  
Projetos de reflorestamento desde 2009. Acompanhamento via GPS e certificados personalizados.  
💰 Custo: R$ 35-55 por tonelada CO2

**5. 🍃 Biofílica Ambipar Environment** [Link: https://www.biofilica.com.br](https://www.biofilica.com.br)  
📞 Tel: (11) 3093-4400 | 📧 Email: contato@biofilica.com.br  
Desenvolvedora de projetos REDD+ na Amazônia. Certificação Gold Standard e parceria com grandes empresas.  
💰 Custo: R$ 45-70 por tonelada CO2
`
