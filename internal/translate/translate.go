package translate

import (
	"context"
	"fmt"

	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tmt "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tmt/v20180321"

	"github.com/voxkit/voxstudio/internal/logger"
)

// Translator 腾讯云机器翻译客户端。
// 配音翻译工作流用它把段文本翻成目标语言，再用对应音色重新生成。
type Translator struct {
	client *tmt.Client
}

// New 创建翻译客户端。
func New(secretID, secretKey, region string) (*Translator, error) {
	if secretID == "" || secretKey == "" {
		return nil, fmt.Errorf("翻译需要 SecretID 和 SecretKey")
	}
	if region == "" {
		region = "ap-guangzhou"
	}

	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tmt.tencentcloudapi.com"

	client, err := tmt.NewClient(credential, region, cpf)
	if err != nil {
		return nil, fmt.Errorf("创建翻译客户端失败: %w", err)
	}

	logger.Info("[translate] 翻译客户端已初始化")
	return &Translator{client: client}, nil
}

// 语言代码映射（用户友好 -> 腾讯云代码）
var langCodeMap = map[string]string{
	"中文":   "zh",
	"汉语":   "zh",
	"英文":   "en",
	"英语":   "en",
	"日文":   "ja",
	"日语":   "ja",
	"韩文":   "ko",
	"韩语":   "ko",
	"法语":   "fr",
	"德语":   "de",
	"西班牙语": "es",
	"俄语":   "ru",
	"葡萄牙语": "pt",
	"意大利语": "it",
	"越南语":  "vi",
	"泰语":   "th",
	"阿拉伯语": "ar",
}

// NormalizeLang 把用户友好的语言名归一化为腾讯云语言代码。
// 未知输入原样返回，空串表示自动检测。
func NormalizeLang(lang string) string {
	if lang == "" {
		return "auto"
	}
	if code, ok := langCodeMap[lang]; ok {
		return code
	}
	return lang
}

// Translate 翻译一段文本。source 可为空（自动检测），target 必填。
func (t *Translator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("翻译文本不能为空")
	}
	if target == "" {
		return "", fmt.Errorf("目标语言不能为空")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	request := tmt.NewTextTranslateRequest()
	request.SourceText = common.StringPtr(text)
	request.Source = common.StringPtr(NormalizeLang(source))
	request.Target = common.StringPtr(NormalizeLang(target))
	request.ProjectId = common.Int64Ptr(0)

	response, err := t.client.TextTranslate(request)
	if err != nil {
		return "", fmt.Errorf("翻译请求失败: %w", err)
	}

	if response.Response == nil || response.Response.TargetText == nil {
		return "", fmt.Errorf("翻译响应为空")
	}

	result := *response.Response.TargetText
	detectedSource := ""
	if response.Response.Source != nil {
		detectedSource = *response.Response.Source
	}

	logger.Debugf("[translate] 翻译完成: %s -> %s, %d 字符", detectedSource, NormalizeLang(target), len([]rune(result)))
	return result, nil
}
