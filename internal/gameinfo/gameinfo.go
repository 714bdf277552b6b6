// Package gameinfo はクライアントに返すゲーム情報ドキュメントを定義する
package gameinfo

import (
	"golang.org/x/text/language"
)

// Title はゲームの表示名
const Title = "مغامرات جاسم - نسخة سوبر ماريو المحسنة"

// Version はゲームクライアントのバージョン
const Version = "2.0.0"

// GameInfo はゲームの静的な説明情報
type GameInfo struct {
	Title    string   `json:"title"`
	Version  string   `json:"version"`
	Features []string `json:"features"`
	Controls Controls `json:"controls"`
	Levels   []string `json:"levels"`
}

// Controls は入力デバイスごとの操作説明
type Controls struct {
	Keyboard KeyboardControls `json:"keyboard"`
	Mobile   MobileControls   `json:"mobile"`
}

// KeyboardControls はキーボード操作の割り当て
type KeyboardControls struct {
	Movement string `json:"movement"`
	Jump     string `json:"jump"`
	Fire     string `json:"fire"`
	Down     string `json:"down"`
}

// MobileControls はタッチ操作の割り当て
type MobileControls struct {
	Movement string `json:"movement"`
	Jump     string `json:"jump"`
	Fire     string `json:"fire"`
	Special  string `json:"special"`
}

var arabic = GameInfo{
	Title:   Title,
	Version: Version,
	Features: []string{
		"خلفيات مشابهة لسوبر ماريو",
		"أعداء ورسومات مختلفة لكل مستوى",
		"أزرار تحكم محسنة للهاتف",
		"نظام تصادم محسن",
		"تجميع الكائنات",
		"مراقب الأداء التلقائي",
	},
	Controls: Controls{
		Keyboard: KeyboardControls{
			Movement: "Arrow Keys / WASD",
			Jump:     "Space / W",
			Fire:     "Ctrl (تغيير من Alt)",
			Down:     "S / Down Arrow",
		},
		Mobile: MobileControls{
			Movement: "أزرار الاتجاهات",
			Jump:     "زر القفز",
			Fire:     "زر الرصاص",
			Special:  "أزرار إضافية",
		},
	},
	Levels: []string{
		"السهول - خلفية ماريو الكلاسيكية",
		"الهضاب - مناظر طبيعية جميلة",
		"تحت الأرض - عالم مظلم وغامق",
		"الصحراء - رمال ذهبية وشمس حارقة",
		"الثلوج - جبال بيضاء وثلوج متساقطة",
		"الجزر السماوية - سحب بيضاء وسماء زرقاء",
		"القلعة - حجارة رمادية وأبراج شاهقة",
	},
}

var english = GameInfo{
	Title:   "Jasim's Adventure - Optimized Super Mario Edition",
	Version: Version,
	Features: []string{
		"Super Mario style backgrounds",
		"Different enemies and artwork for every level",
		"Improved touch controls for phones",
		"Improved collision system",
		"Object pooling",
		"Automatic performance monitor",
	},
	Controls: Controls{
		Keyboard: KeyboardControls{
			Movement: "Arrow Keys / WASD",
			Jump:     "Space / W",
			Fire:     "Ctrl (changed from Alt)",
			Down:     "S / Down Arrow",
		},
		Mobile: MobileControls{
			Movement: "Direction buttons",
			Jump:     "Jump button",
			Fire:     "Fire button",
			Special:  "Extra buttons",
		},
	},
	Levels: []string{
		"Plains - classic Mario backdrop",
		"Hills - beautiful scenery",
		"Underground - a dark, gloomy world",
		"Desert - golden sand and a scorching sun",
		"Snow - white mountains and falling snow",
		"Sky Islands - white clouds and blue sky",
		"Castle - grey stone and towering keeps",
	},
}

// 先頭がデフォルト言語
var (
	supported = []language.Tag{language.Arabic, language.English}
	documents = []GameInfo{arabic, english}
	matcher   = language.NewMatcher(supported)
)

// Default はデフォルト言語（アラビア語）のドキュメントを返す
func Default() GameInfo {
	return documents[0]
}

// ForAcceptLanguage はAccept-Languageヘッダーに最も合うドキュメントを返す。
// 解析できない値や未対応の言語ではデフォルトを返す。
func ForAcceptLanguage(header string) (GameInfo, language.Tag) {
	if header == "" {
		return Default(), supported[0]
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default(), supported[0]
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default(), supported[0]
	}
	return documents[index], supported[index]
}
