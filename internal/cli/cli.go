// Package cli はターミナルからレビュー閲覧・投稿・お気に入り管理を行う
// 対話型フロントエンドを提供する。
// 各コマンドはナビゲーションに相当し、ビューコントローラーを
// マウントして操作し、終了時に破棄する。
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/hitoshi/foodiefinds/internal/guard"
	"github.com/hitoshi/foodiefinds/internal/metrics"
	"github.com/hitoshi/foodiefinds/internal/model"
	"github.com/hitoshi/foodiefinds/internal/repository"
	"github.com/hitoshi/foodiefinds/internal/security"
	"github.com/hitoshi/foodiefinds/internal/session"
	"github.com/hitoshi/foodiefinds/internal/view"
)

// Deps はCLIの依存関係をまとめた構造体。
type Deps struct {
	Session    *session.Store
	Reviews    repository.ReviewRepository
	Favorites  repository.FavoriteRepository
	Guard      *guard.AccessGuard
	Sanitizer  security.ReviewSanitizerService
	ImageGuard security.ImageURLGuardService
	Collector  metrics.MetricsCollector
	Logger     *slog.Logger
}

// CLI は対話型フロントエンド。
type CLI struct {
	in   *bufio.Scanner
	out  io.Writer
	deps Deps

	// resumePath は未認証で保護コマンドに遷移した際の再開先。
	// ログイン成功後にそのコマンドへ戻る。
	resumePath string
}

// New はCLIを生成する。
func New(in io.Reader, out io.Writer, deps Deps) *CLI {
	if deps.Collector == nil {
		deps.Collector = metrics.NopCollector{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &CLI{
		in:   bufio.NewScanner(in),
		out:  out,
		deps: deps,
	}
}

// Run は入力が尽きるか quit が入力されるまでコマンドループを実行する。
func (c *CLI) Run(ctx context.Context) error {
	unsubscribe := c.deps.Session.Subscribe(func(identity *model.Identity) {
		if identity != nil {
			fmt.Fprintf(c.out, "* サインイン中: %s (%s)\n", identity.DisplayName, identity.Email)
		} else {
			fmt.Fprintln(c.out, "* サインアウトしました")
		}
	})
	defer unsubscribe()

	fmt.Fprintln(c.out, "FoodieFinds — help でコマンド一覧を表示")
	for {
		fmt.Fprint(c.out, "> ")
		line, ok := c.readLine()
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		c.dispatch(ctx, cmd, args)
	}
}

// dispatch はコマンド1回分を実行する。
// 保護コマンドはAccessGuardの判定を通過した場合のみ実行される。
func (c *CLI) dispatch(ctx context.Context, cmd string, args []string) {
	path := commandPath(cmd, args)
	if path != "" {
		decision := c.deps.Guard.Authorize(path)
		if !decision.Allowed {
			c.resumePath = decision.ResumePath
			fmt.Fprintf(c.out, "このコマンドにはログインが必要です（%s へ移動）。login でログインしてください。\n", decision.RedirectTo)
			return
		}
	}

	switch cmd {
	case "help":
		c.printHelp()
	case "register":
		c.register(ctx)
	case "login":
		c.login(ctx)
	case "logout":
		if err := c.deps.Session.SignOut(ctx); err != nil {
			c.printError(err)
		}
	case "whoami":
		c.whoami()
	case "browse", "list":
		c.browse(ctx, strings.Join(args, " "))
	case "featured":
		c.featured(ctx)
	case "show":
		c.show(ctx, args)
	case "mine":
		c.mine(ctx)
	case "favorites":
		c.favorites(ctx)
	case "add":
		c.addReview(ctx)
	case "edit":
		c.editReview(ctx, args)
	case "delete":
		c.deleteReview(ctx, args)
	case "fav":
		c.favReview(ctx, args)
	case "unfav":
		c.unfavReview(ctx, args)
	case "profile":
		c.updateProfile(ctx)
	default:
		fmt.Fprintf(c.out, "不明なコマンド: %s（help で一覧を表示）\n", cmd)
	}
}

// commandPath は保護判定に使うナビゲーションパスを返す。
// 保護対象外のコマンドは空文字列を返す。
func commandPath(cmd string, args []string) string {
	switch cmd {
	case "add":
		return "/add-review"
	case "mine", "delete":
		return "/my-reviews"
	case "favorites", "unfav":
		return "/my-favorites"
	case "edit":
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		return "/update-review/" + id
	default:
		return ""
	}
}

func (c *CLI) printHelp() {
	fmt.Fprint(c.out, `コマンド一覧:
  register             新規登録
  login                ログイン
  logout               ログアウト
  whoami               現在のユーザーを表示
  browse [検索語]      レビュー一覧（料理名で絞り込み可）
  featured             注目レビュー
  show <id>            レビュー詳細
  mine                 自分のレビュー
  favorites            お気に入り一覧
  add                  レビューを投稿
  edit <id>            レビューを編集
  delete <id>          レビューを削除
  fav <id>             お気に入りに登録
  unfav <id>           お気に入りを解除
  profile              プロフィールを更新
  quit                 終了
`)
}

func (c *CLI) register(ctx context.Context) {
	email := c.prompt("メールアドレス: ")
	displayName := c.prompt("表示名: ")
	photoURL := c.prompt("アバターURL（空欄でデフォルト）: ")
	password := c.prompt("パスワード: ")
	confirm := c.prompt("パスワード（確認）: ")

	if photoURL != "" {
		if err := c.deps.ImageGuard.ValidateImageURL(photoURL); err != nil {
			fmt.Fprintf(c.out, "アバターURLが不正です: %v\n", err)
			return
		}
	}

	if _, err := c.deps.Session.SignUp(ctx, email, password, confirm, displayName, photoURL); err != nil {
		c.printError(err)
		return
	}
	c.resume(ctx)
}

func (c *CLI) login(ctx context.Context) {
	email := c.prompt("メールアドレス: ")
	password := c.prompt("パスワード: ")

	if _, err := c.deps.Session.SignIn(ctx, email, password); err != nil {
		c.printError(err)
		return
	}
	c.resume(ctx)
}

// resume はログイン前に拒否されたナビゲーションがあればそこへ戻る。
func (c *CLI) resume(ctx context.Context) {
	if c.resumePath == "" {
		return
	}
	path := c.resumePath
	c.resumePath = ""

	fmt.Fprintf(c.out, "元のページへ戻ります: %s\n", path)
	switch {
	case path == "/add-review":
		c.addReview(ctx)
	case path == "/my-reviews":
		c.mine(ctx)
	case path == "/my-favorites":
		c.favorites(ctx)
	case strings.HasPrefix(path, "/update-review/"):
		id := strings.TrimPrefix(path, "/update-review/")
		c.editReview(ctx, []string{id})
	}
}

func (c *CLI) whoami() {
	current := c.deps.Session.Current()
	if current == nil {
		fmt.Fprintln(c.out, "未ログインです")
		return
	}
	fmt.Fprintf(c.out, "%s (%s)\n", current.DisplayName, current.Email)
}

func (c *CLI) browse(ctx context.Context, searchTerm string) {
	controller := view.NewReviewListController(
		view.ScopeAll, c.deps.Reviews, c.deps.Favorites,
		c.deps.Session, c.deps.Collector, c.deps.Logger,
	)
	defer controller.Unmount()

	if err := controller.Load(ctx, searchTerm); err != nil {
		c.printError(err)
		return
	}
	c.printReviews(controller.Items())
}

func (c *CLI) featured(ctx context.Context) {
	controller := view.NewReviewListController(
		view.ScopeFeatured, c.deps.Reviews, c.deps.Favorites,
		c.deps.Session, c.deps.Collector, c.deps.Logger,
	)
	defer controller.Unmount()

	if err := controller.Load(ctx, ""); err != nil {
		c.printError(err)
		return
	}
	c.printReviews(controller.Items())
}

func (c *CLI) show(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "使い方: show <id>")
		return
	}
	controller := view.NewDetailController(c.deps.Reviews, c.deps.Favorites, c.deps.Session)
	defer controller.Unmount()

	if err := controller.Load(ctx, args[0]); err != nil {
		c.printError(err)
		return
	}
	review := controller.Review()
	fmt.Fprintf(c.out, "%s — %s（%s）\n", review.FoodName, review.RestaurantName, review.Location)
	fmt.Fprintf(c.out, "  %s %s より %s\n", stars(review.Rating), review.ReviewerName, review.PostedAt.Format("2006-01-02"))
	fmt.Fprintf(c.out, "  %s\n", review.ReviewText)
}

func (c *CLI) mine(ctx context.Context) {
	controller := view.NewReviewListController(
		view.ScopeMine, c.deps.Reviews, c.deps.Favorites,
		c.deps.Session, c.deps.Collector, c.deps.Logger,
	)
	defer controller.Unmount()

	if err := controller.Load(ctx, ""); err != nil {
		c.printError(err)
		return
	}
	c.printReviews(controller.Items())
}

func (c *CLI) favorites(ctx context.Context) {
	controller := view.NewFavoritesController(
		c.deps.Favorites, c.deps.Session, c.deps.Collector, c.deps.Logger,
	)
	defer controller.Unmount()

	if err := controller.Load(ctx); err != nil {
		c.printError(err)
		return
	}
	items := controller.Items()
	if len(items) == 0 {
		fmt.Fprintln(c.out, "お気に入りはまだありません")
		return
	}
	for _, f := range items {
		fmt.Fprintf(c.out, "[%s] %s — %s %s\n", f.ID, f.FoodName, f.RestaurantName, stars(f.Rating))
	}
}

func (c *CLI) addReview(ctx context.Context) {
	editor := view.NewEditorController(c.deps.Reviews, c.deps.Session)
	payload, ok := c.promptPayload(model.ReviewPayload{})
	if !ok {
		return
	}
	editor.SetPayload(payload)

	if err := editor.Submit(ctx); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintf(c.out, "レビューを投稿しました: %s\n", editor.Saved().ID)
}

func (c *CLI) editReview(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "使い方: edit <id>")
		return
	}
	editor := view.NewEditorController(c.deps.Reviews, c.deps.Session)
	if err := editor.StartEdit(ctx, args[0]); err != nil {
		c.printError(err)
		return
	}

	payload, ok := c.promptPayload(editor.Payload())
	if !ok {
		return
	}
	editor.SetPayload(payload)

	if err := editor.Submit(ctx); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintln(c.out, "レビューを更新しました")
}

func (c *CLI) deleteReview(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "使い方: delete <id>")
		return
	}

	// 削除は取り消せないため確認を挟む
	answer := c.prompt(fmt.Sprintf("レビュー %s を削除しますか？取り消せません [y/N]: ", args[0]))
	if !strings.EqualFold(answer, "y") {
		fmt.Fprintln(c.out, "キャンセルしました")
		return
	}

	controller := view.NewReviewListController(
		view.ScopeMine, c.deps.Reviews, c.deps.Favorites,
		c.deps.Session, c.deps.Collector, c.deps.Logger,
	)
	defer controller.Unmount()

	if err := controller.Load(ctx, ""); err != nil {
		c.printError(err)
		return
	}
	result := controller.Delete(ctx, args[0])
	if result.Err != nil {
		c.printError(result.Err)
		return
	}
	fmt.Fprintln(c.out, "レビューを削除しました")
}

func (c *CLI) favReview(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "使い方: fav <id>")
		return
	}
	controller := view.NewDetailController(c.deps.Reviews, c.deps.Favorites, c.deps.Session)
	defer controller.Unmount()

	if err := controller.Load(ctx, args[0]); err != nil {
		c.printError(err)
		return
	}
	if err := controller.Favorite(ctx); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintln(c.out, "お気に入りに登録しました")
}

func (c *CLI) unfavReview(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(c.out, "使い方: unfav <id>")
		return
	}
	controller := view.NewFavoritesController(
		c.deps.Favorites, c.deps.Session, c.deps.Collector, c.deps.Logger,
	)
	defer controller.Unmount()

	if err := controller.Load(ctx); err != nil {
		c.printError(err)
		return
	}
	result := controller.Remove(ctx, args[0])
	if result.Err != nil {
		c.printError(result.Err)
		return
	}
	fmt.Fprintln(c.out, "お気に入りを解除しました")
}

func (c *CLI) updateProfile(ctx context.Context) {
	displayName := c.prompt("表示名: ")
	photoURL := c.prompt("アバターURL: ")

	if photoURL != "" {
		if err := c.deps.ImageGuard.ValidateImageURL(photoURL); err != nil {
			fmt.Fprintf(c.out, "アバターURLが不正です: %v\n", err)
			return
		}
	}

	if err := c.deps.Session.UpdateProfile(ctx, displayName, photoURL); err != nil {
		c.printError(err)
		return
	}
	fmt.Fprintln(c.out, "プロフィールを更新しました")
}

// promptPayload はレビュー入力を対話的に収集する。
// テキストフィールドはサニタイズされ、画像URLは事前検証される。
// 既定値がある場合は空入力でそのまま使う。
func (c *CLI) promptPayload(defaults model.ReviewPayload) (model.ReviewPayload, bool) {
	payload := model.ReviewPayload{
		FoodName:       c.promptDefault("料理名", defaults.FoodName),
		FoodImage:      c.promptDefault("料理画像URL", defaults.FoodImage),
		RestaurantName: c.promptDefault("店舗名", defaults.RestaurantName),
		Location:       c.promptDefault("所在地", defaults.Location),
		ReviewText:     c.promptDefault("レビュー本文", defaults.ReviewText),
	}

	payload.FoodName = c.deps.Sanitizer.SanitizeText(payload.FoodName)
	payload.RestaurantName = c.deps.Sanitizer.SanitizeText(payload.RestaurantName)
	payload.Location = c.deps.Sanitizer.SanitizeText(payload.Location)
	payload.ReviewText = c.deps.Sanitizer.SanitizeText(payload.ReviewText)

	if err := c.deps.ImageGuard.ValidateImageURL(payload.FoodImage); err != nil {
		fmt.Fprintf(c.out, "料理画像URLが不正です: %v\n", err)
		return model.ReviewPayload{}, false
	}

	ratingInput := c.promptDefault("評価 (1-5)", strconv.Itoa(defaults.Rating))
	rating, err := strconv.Atoi(ratingInput)
	if err != nil {
		fmt.Fprintln(c.out, "評価は1〜5の整数で入力してください")
		return model.ReviewPayload{}, false
	}
	payload.Rating = rating
	return payload, true
}

func (c *CLI) printReviews(reviews []model.Review) {
	if len(reviews) == 0 {
		fmt.Fprintln(c.out, "レビューが見つかりません")
		return
	}
	for _, r := range reviews {
		fmt.Fprintf(c.out, "[%s] %s — %s %s（%s）\n",
			r.ID, r.FoodName, r.RestaurantName, stars(r.Rating), r.ReviewerName)
	}
}

// printError はAPIErrorのメッセージと対処方法を表示する。
func (c *CLI) printError(err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(c.out, "エラー: %s\n", apiErr.Message)
		if apiErr.Action != "" {
			fmt.Fprintf(c.out, "  %s\n", apiErr.Action)
		}
		return
	}
	fmt.Fprintf(c.out, "エラー: %v\n", err)
}

func (c *CLI) prompt(label string) string {
	fmt.Fprint(c.out, label)
	line, _ := c.readLine()
	return strings.TrimSpace(line)
}

func (c *CLI) promptDefault(label, defaultValue string) string {
	if defaultValue != "" && defaultValue != "0" {
		fmt.Fprintf(c.out, "%s [%s]: ", label, defaultValue)
	} else {
		fmt.Fprintf(c.out, "%s: ", label)
	}
	line, _ := c.readLine()
	line = strings.TrimSpace(line)
	if line == "" {
		return defaultValue
	}
	return line
}

func (c *CLI) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.in.Text()), true
}

// stars は評価を星表示に変換する。
func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
