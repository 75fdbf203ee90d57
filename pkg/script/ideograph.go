package script

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// ideographPairs lists simplified Chinese characters followed by the form
// used in Japanese dictionary headwords.
const ideographPairs = `
语語 话話 说説 读読 词詞 请請 谢謝 让譲 认認 识識 计計 订訂 记記 许許
论論 设設 证証 评評 试試 诗詩 误誤 调調 谈談 问問 闻聞 间間 门門 开開 关関
东東 车車 马馬 鱼魚 鸟鳥 鸡鶏 书書 长長 见見 观観 规規 视視 览覧 觉覚 贝貝
贵貴 费費 资資 买買 卖売 电電 钱銭 钟鐘 铁鉄 银銀 错錯 饭飯 饮飲 馆館 红紅
级級 纸紙 线線 练練 细細 终終 组組 结結 给給 统統 继継 绩績 续続 经経 网網
爱愛 时時 这這 对対 发発 头頭 机機 为為 过過 还還 进進 运運 动動 乐楽 气気
汉漢 亚亜 济済 专専 广広 龙竜 飞飛 习習 乡郷 云雲 亲親 听聴 师師 岁歳 图図
园園 员員 场場 坏壊 块塊 处処 备備 复復 夺奪 奋奮 孙孫 实実 层層 岛島 币幣
应応 张張 弹弾 录録 忆憶 怀懐 态態 总総 战戦 挂掛 换換 无無 显顕 术術 杂雑
极極 样様 桥橋 欢歓 毕畢 沟溝 测測 热熱 营営 环環 现現 产産 疗療 盐塩 码碼
种種 积積 穷窮 笔筆 类類 罗羅 职職 联聯 肠腸 脑脳 节節 药薬 获獲 轻軽 较較
边辺 达達 远遠 选選 递逓 邮郵 队隊 阳陽 阴陰 难難 须須 题題 风風 验験 骑騎
齿歯 贸貿 际際 页頁 顺順 预預 领領 颜顔 饿餓 驾駕 鲜鮮 齐斉 归帰 众衆 优優
伤傷 价価 传伝 农農 况況 减減 则則 刚剛 创創 剧劇 劳労 势勢 协協 单単 压圧
历歴 县県 变変 响響 围囲 圆円 圣聖 坚堅 报報 壳殻
`

var ideographs = buildIdeographTable()

func buildIdeographTable() map[rune]rune {
	table := make(map[rune]rune)
	for _, pair := range strings.Fields(ideographPairs) {
		rs := []rune(pair)
		if len(rs) != 2 || rs[0] == rs[1] {
			continue
		}
		table[rs[0]] = rs[1]
	}
	return table
}

// NormalizeIdeograph replaces simplified Chinese characters with their
// Japanese counterparts. Characters without a mapping pass through unchanged.
func NormalizeIdeograph(s string) string {
	t := runes.Map(func(r rune) rune {
		if m, ok := ideographs[r]; ok {
			return m
		}
		return r
	})
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
