package messages

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BatmanBruc/docx-quiz-bot/internal/i18n"
	"github.com/BatmanBruc/docx-quiz-bot/types"
)

const ParseModeHTML = "HTML"

func Escape(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(strings.TrimSpace(s))
}

// FormatAmount groups thousands with spaces: 125000 -> "125 000".
func FormatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}

func Sum(lang i18n.Lang, amount int64) string {
	return FormatAmount(amount) + " " + pick(lang, "so'm", "сум", "UZS")
}

func pick(lang i18n.Lang, uz, ru, en string) string {
	switch lang {
	case i18n.RU:
		return ru
	case i18n.EN:
		return en
	default:
		return uz
	}
}

func FileLine(lang i18n.Lang, fileName string) string {
	name := strings.TrimSpace(fileName)
	if name == "" {
		name = pick(lang, "fayl", "файл", "file")
	}
	return fmt.Sprintf("📄 <b>%s:</b> %s", pick(lang, "Fayl", "Файл", "File"), Escape(name))
}

// LanguagePrompt is shown before the language is known, so it speaks all three.
func LanguagePrompt() string {
	return "🌐 <b>Tilni tanlang</b>\n🌐 <b>Выберите язык</b>\n🌐 <b>Choose your language</b>"
}

func LanguageName(lang i18n.Lang) string {
	switch lang {
	case i18n.RU:
		return "🇷🇺 Русский"
	case i18n.EN:
		return "🇬🇧 English"
	default:
		return "🇺🇿 O'zbekcha"
	}
}

func MainMenuText(lang i18n.Lang, price int64) string {
	return pick(lang,
		"👋 <b>Assalomu alaykum!</b>\nMen DOCX test fayllarini TXT formatiga o'giraman.",
		"👋 <b>Здравствуйте!</b>\nЯ конвертирую DOCX-тесты в формат TXT.",
		"👋 <b>Hello!</b>\nI convert DOCX quizzes into TXT test files.",
	) + "\n\n" + pick(lang, "💰 Narx: ", "💰 Цена: ", "💰 Price: ") +
		"<b>" + Sum(lang, price) + "</b>" + pick(lang, " / fayl", " / файл", " / file") +
		"\n\n" + pick(lang, "Amalni tanlang:", "Выберите действие:", "Choose an action:")
}

func MenuBtnConvert(lang i18n.Lang) string {
	return pick(lang, "📄 Konvertatsiya", "📄 Конвертировать", "📄 Convert")
}

func MenuBtnBalance(lang i18n.Lang) string {
	return pick(lang, "💰 Balans", "💰 Баланс", "💰 Balance")
}

func MenuBtnReferral(lang i18n.Lang) string {
	return pick(lang, "👥 Do'stlarni taklif qilish", "👥 Пригласить друзей", "👥 Invite friends")
}

func MenuBtnPromo(lang i18n.Lang) string {
	return pick(lang, "🎁 Promokod", "🎁 Промокод", "🎁 Promo code")
}

func MenuBtnLanguage(lang i18n.Lang) string {
	return pick(lang, "🌐 Til", "🌐 Язык", "🌐 Language")
}

func MenuBtnBack(lang i18n.Lang) string {
	return pick(lang, "⬅️ Orqaga", "⬅️ Назад", "⬅️ Back")
}

func OfferText(lang i18n.Lang) string {
	return pick(lang,
		"📜 <b>Ommaviy oferta</b>\nDavom etishdan oldin oferta shartlari bilan tanishib chiqing.",
		"📜 <b>Публичная оферта</b>\nПеред продолжением ознакомьтесь с условиями оферты.",
		"📜 <b>Public offer</b>\nPlease read the offer terms before you continue.",
	)
}

func OfferBtnView(lang i18n.Lang) string {
	return pick(lang, "📖 Ofertani ko'rish", "📖 Открыть оферту", "📖 Read the offer")
}

func OfferBtnConfirm(lang i18n.Lang) string {
	return pick(lang, "✅ Roziman", "✅ Согласен", "✅ I agree")
}

func SendFilePrompt(lang i18n.Lang, price int64) string {
	return pick(lang,
		"📎 <b>DOCX faylni yuboring</b>\nBir nechta faylni bitta albom qilib yuborsangiz, ular uchun bitta to'lov bo'ladi.",
		"📎 <b>Отправьте DOCX-файл</b>\nНесколько файлов одним альбомом оплачиваются одним счётом.",
		"📎 <b>Send a DOCX file</b>\nSeveral files sent as one album are paid with a single invoice.",
	) + "\n" + pick(lang, "💰 Narx: ", "💰 Цена: ", "💰 Price: ") + Sum(lang, price) + pick(lang, " / fayl", " / файл", " / file")
}

func HelpText(lang i18n.Lang, price int64) string {
	return pick(lang,
		"ℹ️ <b>Yordam</b>\n"+
			"1. DOCX test faylini yuboring (savol va javoblar jadvalda).\n"+
			"2. Birinchi ustun savol, ikkinchisi to'g'ri javob, qolganlari noto'g'ri javoblar.\n"+
			"3. To'lovdan so'ng TXT faylni olasiz.\n\n"+
			"/start menyu, /balance balans, /help yordam",
		"ℹ️ <b>Помощь</b>\n"+
			"1. Отправьте DOCX-тест (вопросы и ответы в таблице).\n"+
			"2. Первый столбец вопрос, второй правильный ответ, остальные неправильные.\n"+
			"3. После оплаты вы получите TXT-файл.\n\n"+
			"/start меню, /balance баланс, /help помощь",
		"ℹ️ <b>Help</b>\n"+
			"1. Send a DOCX quiz (questions and answers in a table).\n"+
			"2. First column is the question, the second the correct answer, the rest wrong answers.\n"+
			"3. After payment you receive a TXT file.\n\n"+
			"/start menu, /balance balance, /help help",
	) + "\n" + pick(lang, "💰 Narx: ", "💰 Цена: ", "💰 Price: ") + Sum(lang, price) + pick(lang, " / fayl", " / файл", " / file")
}

func BalanceText(lang i18n.Lang, balance, price int64) string {
	files := int64(0)
	if price > 0 {
		files = balance / price
	}
	return fmt.Sprintf("%s <b>%s</b>\n%s %d",
		pick(lang, "💰 Balansingiz:", "💰 Ваш баланс:", "💰 Your balance:"),
		Sum(lang, balance),
		pick(lang, "📄 Shuncha faylga yetadi:", "📄 Хватит на файлов:", "📄 Enough for files:"),
		files,
	)
}

func ReferralText(lang i18n.Lang, link string, invited int, earned, reward int64) string {
	return fmt.Sprintf("%s\n\n🔗 <code>%s</code>\n\n%s <b>%d</b>\n%s <b>%s</b>",
		pick(lang,
			"👥 <b>Do'stlaringizni taklif qiling</b>\nHar bir yangi do'st uchun "+Sum(lang, reward)+" olasiz.",
			"👥 <b>Приглашайте друзей</b>\nЗа каждого нового друга вы получите "+Sum(lang, reward)+".",
			"👥 <b>Invite your friends</b>\nYou get "+Sum(lang, reward)+" for every new friend.",
		),
		Escape(link),
		pick(lang, "Taklif qilinganlar:", "Приглашено:", "Invited:"), invited,
		pick(lang, "Ishlab topilgan:", "Заработано:", "Earned:"), Sum(lang, earned),
	)
}

func ReferralRewarded(lang i18n.Lang, reward, balance int64) string {
	return fmt.Sprintf("🎉 %s <b>%s</b>\n%s %s",
		pick(lang, "Yangi do'stingiz qo'shildi! Bonus:", "По вашей ссылке пришёл друг! Бонус:", "A friend joined with your link! Bonus:"),
		Sum(lang, reward),
		pick(lang, "Balans:", "Баланс:", "Balance:"), Sum(lang, balance),
	)
}

func PromoPrompt(lang i18n.Lang) string {
	return pick(lang, "🎁 Promokodni yuboring:", "🎁 Отправьте промокод:", "🎁 Send your promo code:")
}

func PromoRedeemed(lang i18n.Lang, reward, balance int64) string {
	return fmt.Sprintf("✅ %s <b>%s</b>\n%s %s",
		pick(lang, "Promokod qabul qilindi:", "Промокод активирован:", "Promo code applied:"),
		Sum(lang, reward),
		pick(lang, "Balans:", "Баланс:", "Balance:"), Sum(lang, balance),
	)
}

func PromoNotFound(lang i18n.Lang) string {
	return pick(lang, "❌ Bunday promokod yo'q.", "❌ Такого промокода нет.", "❌ No such promo code.")
}

func PromoAlreadyUsed(lang i18n.Lang) string {
	return pick(lang, "⚠️ Siz bu promokoddan foydalangansiz.", "⚠️ Вы уже использовали этот промокод.", "⚠️ You have already used this promo code.")
}

func PromoExhausted(lang i18n.Lang) string {
	return pick(lang, "⌛ Promokod limiti tugagan.", "⌛ Лимит промокода исчерпан.", "⌛ This promo code is used up.")
}

func OnlyDocx(lang i18n.Lang) string {
	return pick(lang,
		"🚫 Faqat <b>.docx</b> fayllar qabul qilinadi.",
		"🚫 Принимаются только файлы <b>.docx</b>.",
		"🚫 Only <b>.docx</b> files are accepted.",
	)
}

func FileTooLarge(lang i18n.Lang) string {
	return pick(lang, "🚫 Fayl juda katta.", "🚫 Файл слишком большой.", "🚫 The file is too large.")
}

func ErrorCannotProcessFile(lang i18n.Lang, fileName string) string {
	return pick(lang,
		"🚫 <b>Faylni qabul qilib bo'lmadi</b>\n",
		"🚫 <b>Не удалось принять файл</b>\n",
		"🚫 <b>Could not accept the file</b>\n",
	) + FileLine(lang, fileName)
}

func BatchProgress(lang i18n.Lang, count int, total int64) string {
	return fmt.Sprintf("📁 %s %d\n💰 %s %s",
		pick(lang, "Fayl qabul qilindi:", "Файл принят:", "File received:"), count,
		pick(lang, "Jami:", "Итого:", "Total:"), Sum(lang, total),
	)
}

func PaymentOptions(lang i18n.Lang, count int, total, balance int64) string {
	return fmt.Sprintf("🧾 <b>%s</b>\n%s %d\n%s <b>%s</b>\n%s %s\n\n%s",
		pick(lang, "To'lov", "Оплата", "Payment"),
		pick(lang, "Fayllar:", "Файлов:", "Files:"), count,
		pick(lang, "Jami:", "Итого:", "Total:"), Sum(lang, total),
		pick(lang, "Balans:", "Баланс:", "Balance:"), Sum(lang, balance),
		pick(lang, "To'lov usulini tanlang:", "Выберите способ оплаты:", "Choose how to pay:"),
	)
}

func PayBtnBalance(lang i18n.Lang, total int64) string {
	return pick(lang, "💰 Balansdan: ", "💰 С баланса: ", "💰 From balance: ") + Sum(lang, total)
}

func PayBtnPartial(lang i18n.Lang, balance, remainder int64) string {
	return fmt.Sprintf("🔀 %s %s + %s", pick(lang, "Balans", "Баланс", "Balance"), FormatAmount(balance), Sum(lang, remainder))
}

func PayBtnExternal(lang i18n.Lang, total int64) string {
	return pick(lang, "💳 Karta orqali: ", "💳 Картой: ", "💳 By card: ") + Sum(lang, total)
}

func InvoiceTitle(lang i18n.Lang) string {
	return pick(lang, "DOCX → TXT konvertatsiya", "Конвертация DOCX → TXT", "DOCX → TXT conversion")
}

func InvoiceDescription(lang i18n.Lang, count int, captured int64) string {
	desc := pick(lang,
		fmt.Sprintf("%d ta fayl konvertatsiyasi", count),
		fmt.Sprintf("Конвертация файлов: %d", count),
		fmt.Sprintf("Conversion of %d file(s)", count),
	)
	if captured > 0 {
		desc += pick(lang, ". Balansdan: ", ". С баланса: ", ". From balance: ") + Sum(lang, captured)
	}
	return desc
}

func InvoiceLabel(lang i18n.Lang, count int) string {
	return pick(lang, fmt.Sprintf("%d ta fayl", count), fmt.Sprintf("%d файл(ов)", count), fmt.Sprintf("%d file(s)", count))
}

func InvoiceSent(lang i18n.Lang) string {
	return pick(lang, "🧾 Hisob yuborildi", "🧾 Счёт отправлен", "🧾 Invoice sent")
}

func BatchDone(lang i18n.Lang, delivered, total int) string {
	if delivered == total {
		return pick(lang, "✅ <b>Tayyor!</b>", "✅ <b>Готово!</b>", "✅ <b>Done!</b>")
	}
	return fmt.Sprintf("⚠️ <b>%s</b> %d / %d",
		pick(lang, "Tayyor fayllar:", "Готово файлов:", "Files ready:"), delivered, total)
}

func FileFailed(lang i18n.Lang, fileName string) string {
	return "❌ " + pick(lang, "Konvertatsiya xatosi: ", "Ошибка конвертации: ", "Conversion failed: ") + Escape(fileName)
}

func BatchAbandoned(lang i18n.Lang, count int, refunded int64) string {
	msg := fmt.Sprintf("⌛ %s (%d)",
		pick(lang, "To'lov muddati tugadi, fayllar o'chirildi", "Время оплаты истекло, файлы удалены", "Payment window expired, files were removed"),
		count)
	if refunded > 0 {
		msg += "\n" + pick(lang, "💰 Balansga qaytarildi: ", "💰 Возвращено на баланс: ", "💰 Returned to balance: ") + Sum(lang, refunded)
	}
	return msg
}

func ErrorSessionExpired(lang i18n.Lang) string {
	return pick(lang,
		"⌛ Sessiya tugadi. Fayllarni qaytadan yuboring.",
		"⌛ Сессия истекла. Отправьте файлы заново.",
		"⌛ The session has expired. Please send the files again.",
	)
}

func ErrorAlreadyProcessed(lang i18n.Lang) string {
	return pick(lang, "ℹ️ Bu to'lov allaqachon qayta ishlangan.", "ℹ️ Этот платёж уже обработан.", "ℹ️ This payment has already been processed.")
}

func ErrorInsufficientBalance(lang i18n.Lang) string {
	return pick(lang, "💸 Balans yetarli emas.", "💸 Недостаточно средств на балансе.", "💸 Not enough balance.")
}

func ErrorChoiceUnavailable(lang i18n.Lang) string {
	return pick(lang, "⚠️ Bu to'lov usuli endi mavjud emas.", "⚠️ Этот способ оплаты больше недоступен.", "⚠️ This payment option is no longer available.")
}

func ErrorPaymentUnavailable(lang i18n.Lang) string {
	return pick(lang,
		"🚫 To'lov tizimi vaqtincha ishlamayapti. Fayllarni keyinroq qayta yuboring.",
		"🚫 Платёжная система временно недоступна. Отправьте файлы позже.",
		"🚫 Payments are temporarily unavailable. Please send the files again later.",
	)
}

func ErrorReconciliation(lang i18n.Lang) string {
	return pick(lang,
		"⚠️ To'lovda nomuvofiqlik bor, administrator xabardor qilindi.",
		"⚠️ Расхождение в оплате, администратор уведомлён.",
		"⚠️ There is a payment mismatch; the administrator has been notified.",
	)
}

func ErrorInvoiceNotFound(lang i18n.Lang) string {
	return pick(lang, "❓ Hisob topilmadi.", "❓ Счёт не найден.", "❓ Invoice not found.")
}

func ErrorCheckout(lang i18n.Lang) string {
	return pick(lang, "Hisob eskirgan", "Счёт устарел", "The invoice is no longer valid")
}

func ErrorDefault(lang i18n.Lang) string {
	return pick(lang, "🚫 <b>Xatolik</b>\nQayta urinib ko'ring.", "🚫 <b>Ошибка</b>\nПопробуйте ещё раз.", "🚫 <b>Error</b>\nPlease try again.")
}

func ErrorUnsupportedMessageType(lang i18n.Lang) string {
	return pick(lang,
		"🤖 Men faqat DOCX fayllar bilan ishlayman.",
		"🤖 Я работаю только с DOCX-файлами.",
		"🤖 I only work with DOCX files.",
	)
}

func ErrorUnknownCommand(lang i18n.Lang) string {
	return pick(lang, "❓ <b>Buyruq topilmadi</b>", "❓ <b>Команда не найдена</b>", "❓ <b>Unknown command</b>")
}

func AdminOnly(lang i18n.Lang) string {
	return pick(lang, "⛔ Faqat administrator uchun.", "⛔ Только для администратора.", "⛔ Administrators only.")
}

func AdminNewPromoUsage() string {
	return "Usage: <code>/newpromo CODE AMOUNT USES</code>\nCODE <code>-</code> generates a random code, USES <code>0</code> means unlimited."
}

func AdminPromoCreated(code string, amount int64, uses int) string {
	limit := "unlimited"
	if uses > 0 {
		limit = strconv.Itoa(uses)
	}
	return fmt.Sprintf("✅ Promo <code>%s</code> created: %s, uses: %s", Escape(code), FormatAmount(amount), limit)
}

func AdminPromoExists(code string) string {
	return fmt.Sprintf("⚠️ Promo <code>%s</code> already exists.", Escape(code))
}

func AdminSetPriceUsage() string {
	return "Usage: <code>/setprice AMOUNT</code>"
}

func AdminPriceUpdated(price int64) string {
	return "✅ Price per file: <b>" + FormatAmount(price) + "</b>"
}

func AdminSetOfferUsage() string {
	return "Usage: <code>/setoffer uz|ru|en URL</code>\nURL <code>-</code> removes the offer link."
}

func AdminOfferUpdated(lang, link string) string {
	if link == "" {
		return fmt.Sprintf("✅ Offer link for <b>%s</b> removed.", Escape(lang))
	}
	return fmt.Sprintf("✅ Offer link for <b>%s</b>: %s", Escape(lang), Escape(link))
}

func AdminNoPromos() string {
	return "No promo codes yet."
}

// AdminPromoList renders one line per promo: code, reward, uses and state.
func AdminPromoList(promos []types.Promocode) string {
	var sb strings.Builder
	sb.WriteString("🎟 <b>Promo codes</b>")
	for _, p := range promos {
		limit := "∞"
		if p.MaxUses > 0 {
			limit = strconv.Itoa(p.MaxUses)
		}
		state := "active"
		if !p.Active {
			state = "inactive"
		}
		fmt.Fprintf(&sb, "\n<code>%s</code> %s, %d/%s, %s",
			Escape(p.Code), FormatAmount(p.RewardAmount), p.CurrentUses, limit, state)
	}
	return sb.String()
}

func AdminStats(users, paid, revenue int64) string {
	return fmt.Sprintf("📊 <b>Stats</b>\nUsers: %d\nPaid invoices: %d\nRevenue: %s", users, paid, FormatAmount(revenue))
}
