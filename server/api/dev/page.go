// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dev

// devPageHTML 是內嵌的機台頁面。
//
// 頁面只呼叫 /v1 與 /dev/replay：
//   - Spin 回傳的 plan.effects 依 at（奈秒）排程播放，按鈕在 plan.done 前保持停用
//   - audio 事件以 WebAudio 合成；notes 為空的提示音使用固定音高
//   - 每局結果保留在頁面上，可直接送去重播驗證
const devPageHTML = `<!doctype html>
<html lang="zh-Hant">
<head>
  <meta charset="utf-8" />
  <link rel="icon" type="image/svg+xml" href="/favicon.svg" />
  <title>trireel</title>
  <style>
    body { font-family: -apple-system,BlinkMacSystemFont,"Segoe UI",sans-serif; background:#0f172a; color:#e2e8f0; margin:0; }
    .wrap { max-width: 760px; margin: 24px auto; padding: 16px 20px; background:#111827; border:1px solid #1f2937; border-radius:12px; }
    h1 { margin: 0 0 16px; font-size: 22px; }
    .grid { display:grid; grid-template-columns: repeat(auto-fit, minmax(150px,1fr)); gap:12px; margin-bottom:12px; }
    label { display:flex; flex-direction:column; gap:6px; font-size: 13px; color:#cbd5e1; }
    input, select { background:#0b1224; color:#e2e8f0; border:1px solid #1f2738; border-radius:8px; padding:10px 12px; font-size:14px; }
    button { cursor:pointer; border:none; border-radius:10px; padding:10px 14px; font-weight:600; background:#1f2937; color:#e2e8f0; }
    button.primary { background:#38bdf8; color:#0b1224; }
    button.on { background:#22c55e; color:#0b1224; }
    button:disabled { opacity:0.6; cursor:not-allowed; }
    .actions { display:flex; gap:10px; flex-wrap:wrap; margin: 8px 0 14px; }
    .reels { display:flex; gap:14px; justify-content:center; margin: 18px 0; }
    .reel { width:110px; height:110px; display:flex; align-items:center; justify-content:center; font-size:64px; background:#0b1224; border:2px solid #1f2738; border-radius:14px; transition: border-color .15s, box-shadow .15s; }
    .reel.spin { border-color:#38bdf8; }
    .reel.stop { box-shadow: 0 0 0 3px #94a3b8 inset; }
    #msg { text-align:center; font-size:18px; min-height:26px; }
    pre { background:#0b1224; border:1px solid #1f2738; border-radius:12px; padding:12px; max-height:260px; overflow:auto; white-space:pre-wrap; font-size:12px; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>trireel</h1>
    <div class="grid">
      <label>Theme <select id="theme"></select></label>
      <label>Seed (int64) <input id="seed" type="text" inputmode="numeric" placeholder="Empty = auto" /></label>
      <label>Odds multiplier <input id="mult" type="number" min="0.01" step="0.01" value="1" /></label>
    </div>
    <div class="actions">
      <button id="btn-open">Open</button>
      <button id="btn-spin" class="primary" disabled>Spin</button>
      <button id="btn-odds" disabled>Apply odds</button>
      <button id="btn-guar" disabled>Guaranteed win</button>
      <button id="btn-sound" disabled>Sound</button>
      <button id="btn-replay" disabled>Replay</button>
    </div>
    <div class="reels"><div class="reel" id="r0">?</div><div class="reel" id="r1">?</div><div class="reel" id="r2">?</div></div>
    <div id="msg"></div>
    <pre id="paytable"></pre>
    <pre id="log"></pre>
  </div>
<script>
const $ = (id) => document.getElementById(id);
const reels = [$('r0'), $('r1'), $('r2')];
const state = { id: null, theme: '', seed: 0, snap: null, results: [] };
let audio = null;

async function api(method, path, body) {
  const opt = { method, headers: {} };
  if (body !== undefined) {
    opt.headers['Content-Type'] = 'application/json';
    opt.body = JSON.stringify(body);
  }
  const res = await fetch(path, opt);
  if (res.status === 204) return null;
  const data = await res.json();
  if (!res.ok) throw new Error(data.error || res.statusText);
  return data;
}

function show(el, v) { el.textContent = typeof v === 'string' ? v : JSON.stringify(v, null, 2); }

function setSession(s) {
  state.snap = s;
  $('btn-guar').classList.toggle('on', s.guaranteed_win);
  $('btn-sound').classList.toggle('on', s.sound_enabled);
  $('mult').value = s.odds_multiplier;
}

async function loadThemes() {
  const list = await api('GET', '/v1/themes');
  for (const t of list) {
    const o = document.createElement('option');
    o.value = t.name;
    o.textContent = t.name + ' (' + t.symbols.join(' ') + ')';
    $('theme').appendChild(o);
  }
}

async function loadPaytable() {
  const rows = await api('GET', '/v1/sessions/' + state.id + '/symbols');
  show($('paytable'), rows.map(r => r.symbol + '  x' + r.payout + '  p=' + r.probability.toFixed(4)).join('\n'));
}

async function open() {
  const seedText = $('seed').value.trim();
  const body = { theme: $('theme').value };
  if (seedText !== '') body.seed = Number(seedText);
  try {
    const s = await api('POST', '/v1/sessions', body);
    state.id = s.id;
    state.theme = body.theme;
    state.seed = body.seed || 0;
    state.results = [];
    setSession(s);
    for (const r of reels) r.textContent = '?';
    for (const b of ['btn-spin', 'btn-odds', 'btn-guar', 'btn-sound']) $(b).disabled = false;
    $('btn-replay').disabled = state.seed === 0;
    show($('msg'), '');
    await loadPaytable();
  } catch (e) { show($('msg'), e.message); }
}

function tone(hz, start, dur) {
  const o = audio.createOscillator();
  const g = audio.createGain();
  o.frequency.value = hz;
  g.gain.setValueAtTime(0.12, start);
  g.gain.exponentialRampToValueAtTime(0.001, start + dur);
  o.connect(g).connect(audio.destination);
  o.start(start);
  o.stop(start + dur);
}

function playCue(e) {
  if (!audio) audio = new AudioContext();
  let t = audio.currentTime;
  if (e.notes && e.notes.length) {
    for (const n of e.notes) { tone(n.hz, t, n.dur / 1e9); t += n.dur / 1e9; }
    return;
  }
  switch (e.cue) {
    case 'spin-tick': tone(440, t, 0.05); break;
    case 'reel-stop': tone(220, t, 0.08); break;
    case 'lose': tone(196, t, 0.25); tone(147, t + 0.25, 0.35); break;
  }
}

function apply(e) {
  const r = reels[e.reel];
  switch (e.kind) {
    case 'spin_start':
      show($('msg'), '');
      for (const x of reels) { x.style.borderColor = ''; x.classList.remove('stop'); }
      break;
    case 'reel_spin_start': r.classList.add('spin'); break;
    case 'reel_tick': r.textContent = e.symbol; break;
    case 'reel_settle': r.textContent = e.symbol; r.classList.remove('spin'); break;
    case 'reel_stop_cue': r.classList.add('stop'); break;
    case 'outcome': {
      const o = e.outcome;
      if (o.kind === 'full_match') show($('msg'), 'WIN ' + o.symbol + ' x' + o.payout);
      else if (o.kind === 'partial_match') show($('msg'), 'Two of a kind');
      else show($('msg'), 'No match');
      break;
    }
    case 'win_highlight':
      for (const x of reels) x.style.borderColor = e.color;
      setTimeout(() => { for (const x of reels) x.style.borderColor = ''; }, e.duration / 1e6);
      break;
    case 'audio': playCue(e); break;
  }
}

async function spin() {
  $('btn-spin').disabled = true;
  try {
    const res = await api('POST', '/v1/sessions/' + state.id + '/spin');
    const plan = res.plan;
    state.results.push(plan.result);
    for (const e of plan.effects) setTimeout(() => apply(e), e.at / 1e6);
    setTimeout(async () => {
      $('btn-spin').disabled = false;
      setSession(await api('GET', '/v1/sessions/' + state.id));
    }, plan.done / 1e6);
    show($('log'), plan.result);
  } catch (e) {
    show($('msg'), e.message);
    $('btn-spin').disabled = false;
  }
}

async function toggle(path) {
  try { setSession(await api('POST', '/v1/sessions/' + state.id + path, {})); }
  catch (e) { show($('msg'), e.message); }
}

async function setOdds() {
  try {
    await api('PUT', '/v1/sessions/' + state.id + '/odds', { multiplier: Number($('mult').value) });
    await loadPaytable();
  } catch (e) { show($('msg'), e.message); }
}

async function replay() {
  if (!state.results.length) return;
  try {
    show($('log'), await api('POST', '/dev/replay', { theme: state.theme, seed: state.seed, results: state.results }));
  } catch (e) { show($('msg'), e.message); }
}

$('btn-open').onclick = open;
$('btn-spin').onclick = spin;
$('btn-odds').onclick = setOdds;
$('btn-guar').onclick = () => toggle('/guaranteed-win');
$('btn-sound').onclick = () => toggle('/sound');
$('btn-replay').onclick = replay;
document.addEventListener('keydown', (e) => {
  if (e.code === 'Space' && !$('btn-spin').disabled && e.target.tagName !== 'INPUT') { e.preventDefault(); spin(); }
});
loadThemes();
</script>
</body>
</html>`

const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <rect x="2" y="10" width="60" height="44" rx="8" fill="#111827" stroke="#38bdf8" stroke-width="3"/>
  <rect x="9" y="18" width="13" height="28" rx="3" fill="#e74c3c"/>
  <rect x="25.5" y="18" width="13" height="28" rx="3" fill="#f1c40f"/>
  <rect x="42" y="18" width="13" height="28" rx="3" fill="#3498db"/>
</svg>`
