package filetype

// defaultTypeDef is a compact description used to seed a Registry's default
// type set at startup, before rc files or CLI --type-* flags run.
type defaultTypeDef struct {
	name  string
	exts  []string
	names []string
	first string // optional firstlinematch pattern (shebang-style), no delimiters
}

// defaultTypeDefs mirrors the language/extension groupings the teacher repo
// keeps in language.ExtensionToLanguage (lexandro-codeindex-mcp), adapted
// into ucg-style named FileTypes: one rule set per language rather than one
// flat extension->language map, plus `is:`/`firstlinematch:` rules for
// extension-less scripts, matching the shape of UniversalCodeGrep's default
// type table (_examples/original_source).
var defaultTypeDefs = []defaultTypeDef{
	{name: "go", exts: []string{"go"}},
	{name: "cpp", exts: []string{"cpp", "cc", "cxx", "hpp", "hxx", "h", "c", "inl"}},
	{name: "c", exts: []string{"c", "h"}},
	{name: "csharp", exts: []string{"cs", "csx"}},
	{name: "python", exts: []string{"py", "pyi", "pyw"}, first: `^#!.*\bpython[0-9.]*\b`},
	{name: "ruby", exts: []string{"rb", "erb"}, names: []string{"Rakefile", "Gemfile"}, first: `^#!.*\bruby\b`},
	{name: "rust", exts: []string{"rs"}},
	{name: "java", exts: []string{"java"}},
	{name: "kotlin", exts: []string{"kt", "kts"}},
	{name: "swift", exts: []string{"swift"}},
	{name: "dart", exts: []string{"dart"}},
	{name: "php", exts: []string{"php"}, first: `^#!.*\bphp\b`},
	{name: "perl", exts: []string{"pl", "pm"}, first: `^#!.*\bperl\b`},
	{name: "shell", exts: []string{"sh", "bash", "zsh", "fish"}, first: `^#!.*\b(ba|z|fi)?sh\b`},
	{name: "powershell", exts: []string{"ps1", "psm1", "psd1"}},
	{name: "js", exts: []string{"js", "jsx", "mjs", "cjs"}},
	{name: "ts", exts: []string{"ts", "tsx", "mts", "cts"}},
	{name: "html", exts: []string{"html", "htm"}},
	{name: "css", exts: []string{"css", "scss", "sass", "less"}},
	{name: "json", exts: []string{"json", "jsonc"}},
	{name: "yaml", exts: []string{"yaml", "yml"}},
	{name: "toml", exts: []string{"toml"}},
	{name: "xml", exts: []string{"xml", "xsl", "xslt"}},
	{name: "markdown", exts: []string{"md", "mdx"}},
	{name: "sql", exts: []string{"sql"}},
	{name: "proto", exts: []string{"proto"}},
	{name: "make", names: []string{"Makefile", "makefile", "GNUmakefile"}, exts: []string{"mk"}},
	{name: "cmake", exts: []string{"cmake"}, names: []string{"CMakeLists.txt"}},
	{name: "docker", names: []string{"Dockerfile"}, exts: []string{"dockerfile"}},
	{name: "terraform", exts: []string{"tf", "tfvars"}},
	{name: "lua", exts: []string{"lua"}},
	{name: "elixir", exts: []string{"ex", "exs"}},
	{name: "erlang", exts: []string{"erl", "hrl"}},
	{name: "haskell", exts: []string{"hs"}},
	{name: "scala", exts: []string{"scala"}},
	{name: "zig", exts: []string{"zig"}},
	{name: "vue", exts: []string{"vue"}},
	{name: "svelte", exts: []string{"svelte"}},
}

// PopulateDefaults registers every type in defaultTypeDefs into r. It is
// idempotent-ish only in the sense that it always appends fresh types; call
// it once, on a freshly-constructed Registry.
func PopulateDefaults(r *Registry) error {
	for _, def := range defaultTypeDefs {
		if len(def.exts) > 0 {
			spec := "ext:" + joinComma(def.exts)
			if err := r.AddRule(def.name, spec, false); err != nil {
				return err
			}
		}
		if len(def.names) > 0 {
			spec := "is:" + joinComma(def.names)
			if err := r.AddRule(def.name, spec, false); err != nil {
				return err
			}
		}
		if def.first != "" {
			spec := "firstlinematch:/" + def.first + "/"
			if err := r.AddRule(def.name, spec, false); err != nil {
				return err
			}
		}
	}
	return nil
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
