package grammar

import "github.com/leapstack-labs/sequent/pkg/token"

// Seed holds the category and rule IDs of the fixed wire syntax, created
// before any user rules exist. The command language (module, category,
// syntax, notation, definition, axiom, theorem) parses through the same
// engine as the user's formal notation.
type Seed struct {
	// Categories
	Command        CategoryID
	SyntaxPat      CategoryID
	SyntaxPatPart  CategoryID
	AssocOpt       CategoryID
	Templates      CategoryID
	Template       CategoryID
	FreshOpt       CategoryID
	TemplParamsOpt CategoryID
	TemplParams    CategoryID
	Hypotheses     CategoryID
	Hypothesis     CategoryID
	Fact           CategoryID
	Tactics        CategoryID
	Tactic         CategoryID
	InstList       CategoryID
	Inst           CategoryID
	AnyFrag        CategoryID
	AnyFragArgs    CategoryID
	Sentence       CategoryID

	// Command rules, needed by the elaborator to classify parse trees.
	CmdModule           RuleID
	CmdCategory         RuleID
	CmdSyntax           RuleID
	CmdNotation         RuleID
	CmdDefinition       RuleID
	CmdDefinitionProved RuleID
	CmdAxiom            RuleID
	CmdTheorem          RuleID

	AssocNone  RuleID
	AssocLeft  RuleID
	AssocRight RuleID

	PatOne      RuleID
	PatMany     RuleID
	PatLit      RuleID
	PatCat      RuleID
	PatBinding  RuleID
	PatVariable RuleID

	TemplatesNone RuleID
	TemplatesMany RuleID
	TemplateRule  RuleID
	FreshNone     RuleID
	FreshSome     RuleID
	TParamsNone   RuleID
	TParamsSome   RuleID
	TParamsOne    RuleID
	TParamsMany   RuleID

	HypsNone   RuleID
	HypsMany   RuleID
	HypRule    RuleID
	FactAssume RuleID
	FactBare   RuleID

	TacticsNone   RuleID
	TacticsMany   RuleID
	TacticHave    RuleID
	TacticAssume  RuleID
	TacticDismiss RuleID
	TacticTodo    RuleID

	InstsNone RuleID
	InstsMany RuleID
	InstRule  RuleID

	ArgsOne  RuleID
	ArgsMany RuleID
}

// NewSeed populates an empty state with the wire syntax and returns the
// assigned IDs. The sentence category is pre-declared as the judgment
// category; it starts with no rules beyond the implicit reference rules.
func NewSeed(s *State) *Seed {
	var sd Seed

	mustCat := func(name string, formal bool) CategoryID {
		id, err := s.AddCategory(name, formal)
		if err != nil {
			panic(err)
		}
		return id
	}
	mustRule := func(name string, cat CategoryID, parts ...PatternPart) RuleID {
		id, err := s.AddRule(name, cat, parts, 0, NonAssoc, SourceBuiltin)
		if err != nil {
			panic(err)
		}
		return id
	}

	sd.Command = mustCat("command", false)
	sd.SyntaxPat = mustCat("syntax-pat", false)
	sd.SyntaxPatPart = mustCat("syntax-pat-part", false)
	sd.AssocOpt = mustCat("assoc-opt", false)
	sd.Templates = mustCat("templates", false)
	sd.Template = mustCat("template", false)
	sd.FreshOpt = mustCat("fresh-opt", false)
	sd.TemplParamsOpt = mustCat("template-params-opt", false)
	sd.TemplParams = mustCat("template-params", false)
	sd.Hypotheses = mustCat("hypotheses", false)
	sd.Hypothesis = mustCat("hypothesis", false)
	sd.Fact = mustCat("fact", false)
	sd.Tactics = mustCat("tactics", false)
	sd.Tactic = mustCat("tactic", false)
	sd.InstList = mustCat("inst-list", false)
	sd.Inst = mustCat("inst", false)
	sd.AnyFrag = mustCat("any-fragment", false)
	sd.AnyFragArgs = mustCat("any-fragment-args", false)

	sd.CmdModule = mustRule("cmd-module", sd.Command,
		Kw("module"), Name())
	sd.CmdCategory = mustRule("cmd-category", sd.Command,
		Kw("category"), Name())
	sd.CmdSyntax = mustRule("cmd-syntax", sd.Command,
		Kw("syntax"), Name(), Name(), Punct(token.DEFINE), Num(), Cat(sd.AssocOpt), Cat(sd.SyntaxPat), Kw("end"))
	sd.CmdNotation = mustRule("cmd-notation", sd.Command,
		Kw("notation"), Name(), Name(), Punct(token.DEFINE), Cat(sd.AnyFrag), Kw("end"))
	sd.CmdDefinition = mustRule("cmd-definition", sd.Command,
		Kw("definition"), Name(), Name(), Punct(token.DEFINE), Cat(sd.AnyFrag), Kw("end"))
	sd.CmdDefinitionProved = mustRule("cmd-definition-proved", sd.Command,
		Kw("definition"), Name(), Name(), Punct(token.DEFINE), Cat(sd.AnyFrag),
		Kw("where"), Cat(sd.Hypotheses), Punct(token.TURNSTILE), Cat(sd.AnyFrag),
		Kw("proof"), Cat(sd.Tactics), Kw("qed"))
	sd.CmdAxiom = mustRule("cmd-axiom", sd.Command,
		Kw("axiom"), Name(), Cat(sd.Templates), Punct(token.COLON), Cat(sd.Hypotheses), Punct(token.TURNSTILE), Cat(sd.AnyFrag), Kw("end"))
	sd.CmdTheorem = mustRule("cmd-theorem", sd.Command,
		Kw("theorem"), Name(), Cat(sd.Templates), Punct(token.COLON), Cat(sd.Hypotheses), Punct(token.TURNSTILE), Cat(sd.AnyFrag), Kw("proof"), Cat(sd.Tactics), Kw("qed"))

	sd.AssocNone = mustRule("assoc-none", sd.AssocOpt)
	sd.AssocLeft = mustRule("assoc-left", sd.AssocOpt, Kw("left"))
	sd.AssocRight = mustRule("assoc-right", sd.AssocOpt, Kw("right"))

	sd.PatOne = mustRule("pat-one", sd.SyntaxPat, Cat(sd.SyntaxPatPart))
	sd.PatMany = mustRule("pat-many", sd.SyntaxPat, Cat(sd.SyntaxPatPart), Cat(sd.SyntaxPat))
	sd.PatLit = mustRule("pat-lit", sd.SyntaxPatPart, Str())
	sd.PatCat = mustRule("pat-cat", sd.SyntaxPatPart, Name())
	sd.PatBinding = mustRule("pat-binding", sd.SyntaxPatPart,
		Punct(token.AT), Kw("binding"), Punct(token.LPAREN), Name(), Punct(token.RPAREN))
	sd.PatVariable = mustRule("pat-variable", sd.SyntaxPatPart,
		Punct(token.AT), Kw("variable"), Punct(token.LPAREN), Name(), Punct(token.RPAREN))

	sd.TemplatesNone = mustRule("templates-none", sd.Templates)
	sd.TemplatesMany = mustRule("templates-many", sd.Templates, Cat(sd.Template), Cat(sd.Templates))
	sd.TemplateRule = mustRule("template", sd.Template,
		Punct(token.LBRACKET), Cat(sd.FreshOpt), Name(), Cat(sd.TemplParamsOpt), Punct(token.COLON), Name(), Punct(token.RBRACKET))
	sd.FreshNone = mustRule("fresh-none", sd.FreshOpt)
	sd.FreshSome = mustRule("fresh-some", sd.FreshOpt, Lit("fresh"))
	sd.TParamsNone = mustRule("template-params-none", sd.TemplParamsOpt)
	sd.TParamsSome = mustRule("template-params-some", sd.TemplParamsOpt,
		Punct(token.LPAREN), Cat(sd.TemplParams), Punct(token.RPAREN))
	sd.TParamsOne = mustRule("template-params-one", sd.TemplParams, Name())
	sd.TParamsMany = mustRule("template-params-many", sd.TemplParams,
		Name(), Punct(token.COMMA), Cat(sd.TemplParams))

	sd.HypsNone = mustRule("hypotheses-none", sd.Hypotheses)
	sd.HypsMany = mustRule("hypotheses-many", sd.Hypotheses, Cat(sd.Hypothesis), Cat(sd.Hypotheses))
	sd.HypRule = mustRule("hypothesis", sd.Hypothesis,
		Punct(token.LPAREN), Cat(sd.Fact), Punct(token.RPAREN))
	sd.FactAssume = mustRule("fact-assume", sd.Fact,
		Kw("assume"), Cat(sd.AnyFrag), Punct(token.TURNSTILE), Cat(sd.AnyFrag))
	sd.FactBare = mustRule("fact-bare", sd.Fact, Cat(sd.AnyFrag))

	sd.TacticsNone = mustRule("tactics-none", sd.Tactics)
	sd.TacticsMany = mustRule("tactics-many", sd.Tactics, Cat(sd.Tactic), Cat(sd.Tactics))
	sd.TacticHave = mustRule("tactic-have", sd.Tactic,
		Kw("have"), Cat(sd.Fact), Kw("by"), Name(), Cat(sd.InstList), Punct(token.SEMI))
	sd.TacticAssume = mustRule("tactic-assume", sd.Tactic,
		Kw("assume"), Cat(sd.AnyFrag), Punct(token.SEMI))
	sd.TacticDismiss = mustRule("tactic-dismiss", sd.Tactic, Kw("dismiss"), Punct(token.SEMI))
	sd.TacticTodo = mustRule("tactic-todo", sd.Tactic, Kw("todo"), Punct(token.SEMI))

	sd.InstsNone = mustRule("insts-none", sd.InstList)
	sd.InstsMany = mustRule("insts-many", sd.InstList, Cat(sd.Inst), Cat(sd.InstList))
	sd.InstRule = mustRule("inst", sd.Inst,
		Punct(token.LBRACKET), Cat(sd.AnyFrag), Punct(token.RBRACKET))

	sd.ArgsOne = mustRule("any-fragment-args-one", sd.AnyFragArgs, Cat(sd.AnyFrag))
	sd.ArgsMany = mustRule("any-fragment-args-many", sd.AnyFragArgs,
		Cat(sd.AnyFrag), Punct(token.COMMA), Cat(sd.AnyFragArgs))

	// The judgment category exists before any user declarations so axioms
	// and theorems always have a conclusion category to parse at.
	sd.Sentence = sd.MustAddFormalCategory(s, "sentence")

	return &sd
}

// AddFormalCategory declares a user formal-language category and installs
// its implicit rules: a bare name reference (bound variable, notation
// shorthand or template parameter, decided at resolution) and a
// parameterized reference name(args). The category is also injected into
// any-fragment so it can appear wherever a fragment of unstated category
// is expected.
func (sd *Seed) AddFormalCategory(s *State, name string) (CategoryID, error) {
	id, err := s.AddCategory(name, true)
	if err != nil {
		return NoCategory, err
	}
	if _, err := s.AddRule("ref-"+name, id, []PatternPart{Name()}, 0, NonAssoc, SourceRef); err != nil {
		return NoCategory, err
	}
	if _, err := s.AddRule("ref-app-"+name, id, []PatternPart{
		Name(), Punct(token.LPAREN), Cat(sd.AnyFragArgs), Punct(token.RPAREN),
	}, 0, NonAssoc, SourceRef); err != nil {
		return NoCategory, err
	}
	if _, err := s.AddRule("any-fragment-"+name, sd.AnyFrag, []PatternPart{Cat(id)}, 0, NonAssoc, SourceRef); err != nil {
		return NoCategory, err
	}
	return id, nil
}

// MustAddFormalCategory is AddFormalCategory for seed construction.
func (sd *Seed) MustAddFormalCategory(s *State, name string) CategoryID {
	id, err := sd.AddFormalCategory(s, name)
	if err != nil {
		panic(err)
	}
	return id
}

// RefRuleFor returns the implicit bare-reference rule of a formal
// category, if the category has one.
func (s *State) RefRuleFor(cat CategoryID) (*Rule, bool) {
	for _, rid := range s.rulesByCat[cat] {
		r := s.rules[rid]
		if r.Source == SourceRef && len(r.Parts) == 1 && r.Parts[0].Kind == PartName {
			return r, true
		}
	}
	return nil, false
}
