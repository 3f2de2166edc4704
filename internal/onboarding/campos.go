package onboarding

// Chaves dos campos coletados na conversa. Os nomes seguem o contrato
// do colaborador de extração (extracted_data).
const (
	CampoRazaoSocial           = "razaoSocial"
	CampoNomeFantasia          = "nomeFantasia"
	CampoEnderecoCompleto      = "enderecoCompleto"
	CampoCNAEPrincipal         = "cnaePrincipal"
	CampoPorteEmpresa          = "porteEmpresa"
	CampoProdutosServicosFoco  = "produtosServicosFoco"
	CampoExperienciaLicitacoes = "experienciaLicitacoes"
	CampoNomeContatoPrincipal  = "nomeContatoPrincipal"
	CampoEmailContato          = "emailContato"
	CampoTelefoneWhatsapp      = "telefoneWhatsapp"
)

// camposConhecidos delimita o que pode ser mesclado no perfil; chaves
// fora desta lista vindas da extração são descartadas.
var camposConhecidos = map[string]bool{
	CampoRazaoSocial:           true,
	CampoNomeFantasia:          true,
	CampoEnderecoCompleto:      true,
	CampoCNAEPrincipal:         true,
	CampoPorteEmpresa:          true,
	CampoProdutosServicosFoco:  true,
	CampoExperienciaLicitacoes: true,
	CampoNomeContatoPrincipal:  true,
	CampoEmailContato:          true,
	CampoTelefoneWhatsapp:      true,
}

// Obrigatórios para concluir (além do CNPJ, tratado à parte)
var camposObrigatorios = []string{
	CampoRazaoSocial,
	CampoEmailContato,
	CampoTelefoneWhatsapp,
}

type Pergunta struct {
	Campo       string
	Texto       string
	Obrigatoria bool
}

// Roteiro da variante A: uma pergunta fixa por turno, nesta ordem.
var perguntasRoteiro = []Pergunta{
	{CampoRazaoSocial, "Qual é a razão social da sua empresa?", true},
	{CampoNomeFantasia, "Qual é o nome fantasia? (responda \"pular\" se for igual à razão social)", false},
	{CampoEnderecoCompleto, "Qual é o endereço completo da empresa (rua, número, bairro, cidade, estado, CEP)?", false},
	{CampoCNAEPrincipal, "Qual é o CNAE principal da empresa? (responda \"pular\" se não souber)", false},
	{CampoPorteEmpresa, "Qual é o porte da empresa: MEI, ME, EPP ou Grande Empresa?", false},
	{CampoProdutosServicosFoco, "Quais produtos ou serviços a empresa oferece?", false},
	{CampoExperienciaLicitacoes, "A empresa já participou de licitações? (Sim/Não)", false},
	{CampoNomeContatoPrincipal, "Qual é o nome do contato principal?", false},
	{CampoEmailContato, "Qual é o email de contato?", true},
	{CampoTelefoneWhatsapp, "Qual é o telefone/WhatsApp com DDD?", true},
}

var nomesCampos = map[string]string{
	CampoRazaoSocial:      "razão social",
	CampoEmailContato:     "email de contato",
	CampoTelefoneWhatsapp: "telefone/WhatsApp",
}
