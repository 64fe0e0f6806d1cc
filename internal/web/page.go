package web

// indexHTML is the whole control surface. Served inline so the binary
// needs no asset directory next to it.
const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>gammasync</title>
<style>
  body { background: #101018; color: #d8d8e8; font-family: monospace; margin: 2rem; }
  h1 { font-size: 1.2rem; letter-spacing: 0.2em; }
  .row { margin: 0.8rem 0; }
  button { background: #202038; color: #d8d8e8; border: 1px solid #404060; padding: 0.4rem 0.8rem; margin-right: 0.4rem; cursor: pointer; }
  button.active { background: #405080; }
  input[type=range] { width: 240px; vertical-align: middle; }
  #program { color: #80c0ff; }
  .band { display: inline-block; width: 60px; }
  .bar { background: #304060; height: 0.6rem; }
  #status.paused #program { color: #c08040; }
</style>
</head>
<body>
<h1>GAMMASYNC</h1>
<div id="status">
  <div class="row"><span id="program">connecting...</span></div>
  <div class="row">freq <span id="freq">-</span> Hz | phase <span id="phase">-</span> | peak <span id="peak">-</span></div>
  <div class="row" id="bands"></div>
</div>
<div class="row" id="presets"></div>
<div class="row">
  <button id="pause">pause</button>
  amp <input type="range" id="amp" min="0" max="1" step="0.05">
  noise <select id="noise"><option>none</option><option>pink</option><option>brown</option></select>
  level <input type="range" id="level" min="0" max="1" step="0.05">
</div>
<script>
const bandNames = ["delta","theta","alpha","beta","gamma"];
let paused = false;

function post(body) {
  fetch("/api/update", {method: "POST", headers: {"Content-Type": "application/json"}, body: JSON.stringify(body)})
    .then(r => r.json()).then(render).catch(() => {});
}

function render(st) {
  paused = st.paused;
  const label = st.preset ? st.preset + ": " + st.program : st.program;
  document.getElementById("program").textContent = label + (st.paused ? " [paused]" : "");
  document.getElementById("status").className = st.paused ? "paused" : "";
  document.getElementById("freq").textContent = st.frequencyHz.toFixed(2);
  document.getElementById("phase").textContent = st.phase.toFixed(3);
  document.getElementById("peak").textContent = st.peak.toFixed(3);
  document.getElementById("amp").value = st.amplitude;
  document.getElementById("level").value = st.noiseLevel;
  document.getElementById("noise").value = st.noise;
  document.getElementById("pause").textContent = st.paused ? "resume" : "pause";
  let total = 0;
  for (const b of bandNames) total += st.bands[b] || 0;
  document.getElementById("bands").innerHTML = bandNames.map(b => {
    const frac = total > 0 ? (st.bands[b] || 0) / total : 0;
    return '<span class="band">' + b + '<div class="bar" style="width:' + Math.round(frac * 60) + 'px"></div></span>';
  }).join(" ");
  for (const btn of document.querySelectorAll("#presets button")) {
    btn.className = btn.textContent === st.preset ? "active" : "";
  }
}

fetch("/api/presets").then(r => r.json()).then(list => {
  const holder = document.getElementById("presets");
  for (const p of list) {
    const btn = document.createElement("button");
    btn.textContent = p.name;
    btn.title = p.description;
    btn.onclick = () => post({preset: p.name});
    holder.appendChild(btn);
  }
});

document.getElementById("pause").onclick = () => post({paused: !paused});
document.getElementById("amp").onchange = e => post({amplitude: parseFloat(e.target.value)});
document.getElementById("level").onchange = e => post({noiseLevel: parseFloat(e.target.value)});
document.getElementById("noise").onchange = e => post({noise: e.target.value});

function connect() {
  const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
  ws.onmessage = ev => {
    for (const line of ev.data.split("\n")) {
      if (line) render(JSON.parse(line));
    }
  };
  ws.onclose = () => setTimeout(connect, 2000);
}
connect();
fetch("/api/status").then(r => r.json()).then(render);
</script>
</body>
</html>
`
