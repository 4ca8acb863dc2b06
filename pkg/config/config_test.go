package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/leaflet/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Version).To(Equal(defaults.Version))
			Expect(cfg.Storage.Provider).To(Equal(defaults.Storage.Provider))
			Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
			Expect(cfg.Client.APITarget).To(Equal(defaults.Client.APITarget))
			Expect(cfg.VectorStore.Provider).To(Equal(defaults.VectorStore.Provider))
			Expect(cfg.Embedding.Provider).To(Equal(defaults.Embedding.Provider))
			Expect(cfg.Embedding.Target).To(Equal(defaults.Embedding.Target))
			Expect(cfg.Embedding.Model).To(Equal(defaults.Embedding.Model))
			Expect(cfg.Embedding.Dimensions).To(Equal(defaults.Embedding.Dimensions))
			Expect(cfg.LLM.Provider).To(Equal(defaults.LLM.Provider))
			Expect(cfg.LLM.Model).To(Equal(defaults.LLM.Model))
			Expect(cfg.Events.Provider).To(Equal(defaults.Events.Provider))
		})

		It("loads a valid config file", func() {
			data := `version = 0

[llm]
provider = "google"
model = "gemini-2.5-flash"

[embedding]
dimensions = 768
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).NotTo(BeNil())
			Expect(cfg.Version).To(Equal(0))
			Expect(cfg.LLM.Provider).To(Equal("google"))
			Expect(cfg.LLM.Model).To(Equal("gemini-2.5-flash"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
		})

		It("loads all config fields", func() {
			data := `version = 0

[storage]
provider = "postgres"
target = "postgres://localhost:5432/leaflet"

[api]
listen = ":9091"

[client]
api_target = "http://myhost:9091"

[vector_store]
provider = "chroma"
target = "http://localhost:8000"

[embedding]
provider = "ollama"
target = "http://localhost:11434"
model = "nomic-embed-text"
dimensions = 1024

[llm]
provider = "openai"
target = "https://api.openai.com/v1"
model = "gpt-4o-mini"

[events]
provider = "kafka"
brokers = ["localhost:9092"]
topic = "leaflet.events"
`
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Version).To(Equal(0))
			Expect(cfg.Storage.Provider).To(Equal("postgres"))
			Expect(cfg.Storage.Target).To(Equal("postgres://localhost:5432/leaflet"))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Client.APITarget).To(Equal("http://myhost:9091"))
			Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
			Expect(cfg.VectorStore.Target).To(Equal("http://localhost:8000"))
			Expect(cfg.Embedding.Provider).To(Equal("ollama"))
			Expect(cfg.Embedding.Target).To(Equal("http://localhost:11434"))
			Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
			Expect(cfg.Embedding.Dimensions).To(Equal(uint(1024)))
			Expect(cfg.LLM.Provider).To(Equal("openai"))
			Expect(cfg.LLM.Model).To(Equal("gpt-4o-mini"))
			Expect(cfg.Events.Provider).To(Equal("kafka"))
			Expect(cfg.Events.Brokers).To(Equal([]string{"localhost:9092"}))
			Expect(cfg.Events.Topic).To(Equal("leaflet.events"))
		})

		It("returns error for malformed TOML", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("not valid toml [[["), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(HaveOccurred())
		})

		It("returns error for unsupported config version", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("version = 99\n"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version")))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.LLM.Model = "llama3.3"

			Expect(c.SaveConfig(cfg)).To(Succeed())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.LLM.Model).To(Equal("llama3.3"))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SaveConfig(nil)).To(HaveOccurred())
		})
	})

	Describe("SetConfigValue", func() {
		It("sets a string config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("vector_store.provider", "qdrant")).To(Succeed())

			got, err := c.GetConfigValue("vector_store.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("qdrant"))
		})

		It("sets a uint config key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("embedding.dimensions", "1536")).To(Succeed())

			got, err := c.GetConfigValue("embedding.dimensions")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("1536"))
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("nope.nope", "x")).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("returns error for invalid uint value", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("embedding.dimensions", "many")).To(HaveOccurred())
		})

		It("preserves existing values when setting a new key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			Expect(c.SetConfigValue("llm.model", "gpt-4o")).To(Succeed())
			Expect(c.SetConfigValue("api.listen", ":9999")).To(Succeed())

			model, err := c.GetConfigValue("llm.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(Equal("gpt-4o"))
		})
	})

	Describe("GetConfigValue", func() {
		It("returns default value when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			got, err := c.GetConfigValue("llm.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("ollama"))
		})

		It("returns empty string for key with no default", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			got, err := c.GetConfigValue("llm.api_key")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})

		It("returns error for unknown key", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.GetConfigValue("nope.nope")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("returns all expected keys", func() {
			keys := config.ValidConfigKeys()
			Expect(keys).To(ContainElements(
				"storage.provider",
				"api.listen",
				"client.api_target",
				"vector_store.provider",
				"vector_store.target",
				"embedding.model",
				"embedding.dimensions",
				"llm.provider",
				"llm.model",
				"llm.api_key",
				"events.provider",
			))
		})

		It("returns keys in stable order", func() {
			Expect(config.ValidConfigKeys()).To(Equal(config.ValidConfigKeys()))
		})
	})

	Describe("IsValidConfigKey", func() {
		It("returns true for valid keys", func() {
			Expect(config.IsValidConfigKey("llm.model")).To(BeTrue())
			Expect(config.IsValidConfigKey("vector_store.target")).To(BeTrue())
		})

		It("returns false for invalid keys", func() {
			Expect(config.IsValidConfigKey("model")).To(BeFalse())
			Expect(config.IsValidConfigKey("llm.temperature")).To(BeFalse())
		})
	})
})

var _ = Describe("PresetConfig", func() {
	It("returns openai preset with correct defaults", func() {
		cfg, err := config.PresetConfig("openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("openai"))
		Expect(cfg.LLM.Target).To(Equal("https://api.openai.com/v1"))
		Expect(cfg.LLM.Model).To(Equal("gpt-4o-mini"))
	})

	It("returns google preset with correct defaults", func() {
		cfg, err := config.PresetConfig("google")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("google"))
		Expect(cfg.LLM.Model).To(Equal("gemini-2.5-flash"))
	})

	It("returns ollama preset matching the defaults", func() {
		cfg, err := config.PresetConfig("ollama")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("ollama"))
		Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
		Expect(cfg.Embedding.Dimensions).To(Equal(uint(768)))
	})

	It("is case-insensitive", func() {
		cfg, err := config.PresetConfig("GOOGLE")
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("google"))
	})

	It("returns error for unknown preset", func() {
		_, err := config.PresetConfig("anthropic")
		Expect(err).To(MatchError(ContainSubstring("unknown preset")))
	})
})

var _ = Describe("ParseConfigTOML", func() {
	It("parses valid TOML into a Config", func() {
		cfg, err := config.ParseConfigTOML([]byte("[llm]\nmodel = \"llama3.2\"\n"))
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Model).To(Equal("llama3.2"))
	})

	It("returns error for invalid TOML", func() {
		_, err := config.ParseConfigTOML([]byte("[[["))
		Expect(err).To(HaveOccurred())
	})

	It("rejects unsupported config version", func() {
		_, err := config.ParseConfigTOML([]byte("version = 3\n"))
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "viper-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":8080"))
		Expect(v.GetString("llm.provider")).To(Equal("ollama"))
	})

	It("reads config file values over defaults", func() {
		data := "[api]\nlisten = \":7070\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":7070"))
	})

	It("respects environment variables with LEAFLET_ prefix", func() {
		os.Setenv("LEAFLET_LLM_MODEL", "qwen3")
		defer os.Unsetenv("LEAFLET_LLM_MODEL")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("llm.model")).To(Equal("qwen3"))
	})

	It("env vars take precedence over config file values", func() {
		data := "[llm]\nmodel = \"from-file\"\n"
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)).To(Succeed())

		os.Setenv("LEAFLET_LLM_MODEL", "from-env")
		defer os.Unsetenv("LEAFLET_LLM_MODEL")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("llm.model")).To(Equal("from-env"))
	})
})

var _ = Describe("BindRegisteredFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "flags-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	It("binds cobra flags to viper keys via registry", func() {
		fs := config.FlagSet{
			config.FlagAPIListen: {
				Name:        "listen",
				ViperKey:    "api.listen",
				Description: "API listen address",
			},
		}

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, fs, config.FlagAPIListen, &listen)
		Expect(cmd.Flags().Set("listen", ":6060")).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagAPIListen})
		Expect(v.GetString("api.listen")).To(Equal(":6060"))
	})

	It("falls through to defaults when flag not set", func() {
		fs := config.FlagSet{
			config.FlagAPIListen: {
				Name:     "listen",
				ViperKey: "api.listen",
			},
		}

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, fs, config.FlagAPIListen, &listen)

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		config.BindRegisteredFlags(v, cmd, fs, []string{config.FlagAPIListen})
		Expect(v.GetString("api.listen")).To(Equal(":8080"))
	})
})
