package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"vigcrack/pkg/contract"
	vig "vigcrack/plugins/decryptor/vigenere"
	ksk "vigcrack/plugins/estimator/kasiski"
	alpha "vigcrack/plugins/normalizer/alpha"
	pbi "vigcrack/plugins/profile/builtin"
	pyml "vigcrack/plugins/profile/yamlfile"
	rfit "vigcrack/plugins/ranker/fitness"
	rfs "vigcrack/plugins/reader/filesystem"
	chisq "vigcrack/plugins/solver/chisq"
	wfs "vigcrack/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewNormalizer 工厂签名：接收原样 JSON Options。
type NewNormalizer func(raw json.RawMessage) (contract.Normalizer, error)

// NewEstimator 工厂签名：接收原样 JSON Options。
type NewEstimator func(raw json.RawMessage) (contract.Estimator, error)

// NewSolver 工厂签名：接收原样 JSON Options。
type NewSolver func(raw json.RawMessage) (contract.Solver, error)

// NewDecryptor 工厂签名：接收原样 JSON Options。
type NewDecryptor func(raw json.RawMessage) (contract.Decryptor, error)

// NewRanker 工厂签名：接收原样 JSON Options。
type NewRanker func(raw json.RawMessage) (contract.Ranker, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// NewProfile 工厂签名：产出已校验的语言参考分布。
type NewProfile func(raw json.RawMessage) (contract.Profile, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Normalizer 工厂注册表。
var Normalizer = map[string]NewNormalizer{
	// alpha: 丢弃字母表外符号，大小写折叠
	"alpha": func(raw json.RawMessage) (contract.Normalizer, error) {
		var opts alpha.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return alpha.New(&opts), nil
	},
}

// Estimator 工厂注册表。
var Estimator = map[string]NewEstimator{
	// kasiski: Kasiski 重复距离 + IC 偏差
	"kasiski": func(raw json.RawMessage) (contract.Estimator, error) {
		var opts ksk.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ksk.New(&opts), nil
	},
}

// Solver 工厂注册表。
var Solver = map[string]NewSolver{
	// chisq: 逐位最小卡方移位
	"chisq": func(raw json.RawMessage) (contract.Solver, error) {
		var opts chisq.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return chisq.New(&opts), nil
	},
}

// Decryptor 工厂注册表。
var Decryptor = map[string]NewDecryptor{
	// vigenere: 无选项
	"vigenere": func(raw json.RawMessage) (contract.Decryptor, error) {
		var opts struct{}
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return vig.New(), nil
	},
}

// Ranker 工厂注册表。
var Ranker = map[string]NewRanker{
	// fitness: 最低聚合卡方胜出
	"fitness": func(raw json.RawMessage) (contract.Ranker, error) {
		var opts rfit.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfit.New(&opts), nil
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（覆盖写/原子替换可配置）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}

// BuiltinOptions: builtin 语言分布选项。
type BuiltinOptions struct {
	Lang string `json:"lang"`
}

// YAMLOptions: yaml 语言分布选项。
type YAMLOptions struct {
	Path string `json:"path"`
}

// Profile 工厂注册表。
var Profile = map[string]NewProfile{
	// builtin: 内置语言表（pt/en）
	"builtin": func(raw json.RawMessage) (contract.Profile, error) {
		var opts BuiltinOptions
		if err := strictUnmarshal(raw, &opts); err != nil {
			return contract.Profile{}, err
		}
		return pbi.Lookup(opts.Lang)
	},
	// yaml: 外部 YAML 频率表
	"yaml": func(raw json.RawMessage) (contract.Profile, error) {
		var opts YAMLOptions
		if err := strictUnmarshal(raw, &opts); err != nil {
			return contract.Profile{}, err
		}
		if strings.TrimSpace(opts.Path) == "" {
			return contract.Profile{}, fmt.Errorf("%w: yaml profile requires path", contract.ErrInvalidInput)
		}
		return pyml.Load(opts.Path)
	},
}
